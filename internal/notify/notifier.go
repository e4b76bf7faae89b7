package notify

import (
	"fmt"
	"strings"

	"pix-withdraw-go/internal/models"
)

const (
	DriverLog   = "log"
	DriverSMTP  = "smtp"
	DriverKafka = "kafka"
)

// New builds the notifier selected by NOTIFIER_DRIVER.
func New(cfg *models.Config) (Notifier, error) {
	renderer, err := NewRenderer(RendererConfig{
		FromAddress: cfg.Mail.FromAddress,
		FromName:    cfg.Mail.FromName,
		Location:    cfg.Withdraw.Location,
	})
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Notifier.Driver) {
	case DriverSMTP:
		return NewSMTPNotifier(renderer, SMTPConfig{
			Host:       cfg.Mail.Host,
			Port:       cfg.Mail.Port,
			Username:   cfg.Mail.Username,
			Password:   cfg.Mail.Password,
			Encryption: cfg.Mail.Encryption,
		})
	case DriverKafka:
		return NewKafkaNotifier(renderer, KafkaConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.NotificationTopic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
		})
	case DriverLog, "":
		return NewLogNotifier(renderer), nil
	default:
		return nil, fmt.Errorf("unknown notifier driver %q", cfg.Notifier.Driver)
	}
}
