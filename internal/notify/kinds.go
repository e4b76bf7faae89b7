package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies a notification template.
type Kind int

const (
	KindWithdrawConfirmation Kind = iota + 1
	KindScheduleConfirmation
	KindScheduleError
)

func (k Kind) String() string {
	switch k {
	case KindWithdrawConfirmation:
		return "withdraw_confirmation"
	case KindScheduleConfirmation:
		return "schedule_confirmation"
	case KindScheduleError:
		return "schedule_error"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type templateSpec struct {
	subject string
	file    string
}

// templateSpecs is the only place a kind is bound to its subject and body.
var templateSpecs = map[Kind]templateSpec{
	KindWithdrawConfirmation: {subject: "Confirmação de Saque - Hyperf Bank", file: "withdraw_confirmation.html"},
	KindScheduleConfirmation: {subject: "Confirmação de Agendamento de Saque - Hyperf Bank", file: "schedule_confirmation.html"},
	KindScheduleError:        {subject: "Erro no Processamento de Saque Agendado - Hyperf Bank", file: "schedule_error.html"},
}

// Notifier delivers a message out-of-band. Callers treat every error as
// non-fatal.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
	Close() error
}

// Message is implemented by the typed payloads below.
type Message interface {
	Kind() Kind
	Recipient() string
	Reference() string
	view(f formatter) any
}

// WithdrawConfirmation is sent after an immediate withdraw commits and after
// a scheduled withdraw is settled.
type WithdrawConfirmation struct {
	To           string
	WithdrawId   string
	AccountName  string
	Method       string
	Amount       decimal.Decimal
	PixKey       string
	Scheduled    bool
	ScheduledFor *time.Time
}

func (m WithdrawConfirmation) Kind() Kind        { return KindWithdrawConfirmation }
func (m WithdrawConfirmation) Recipient() string { return m.To }
func (m WithdrawConfirmation) Reference() string { return m.WithdrawId }

func (m WithdrawConfirmation) view(f formatter) any {
	scheduledFor := "N/A"
	if m.ScheduledFor != nil {
		scheduledFor = f.dateTime(*m.ScheduledFor)
	}
	return withdrawConfirmationView{
		WithdrawId:   m.WithdrawId,
		AccountName:  m.AccountName,
		Method:       m.Method,
		Amount:       FormatAmount(m.Amount),
		PixKey:       MaskPixKey(m.PixKey),
		Scheduled:    yesNo(m.Scheduled),
		ScheduledFor: scheduledFor,
	}
}

// ScheduleConfirmation is sent when a scheduled withdraw is accepted.
type ScheduleConfirmation struct {
	To           string
	WithdrawId   string
	AccountName  string
	Method       string
	Amount       decimal.Decimal
	PixKey       string
	ScheduledFor time.Time
}

func (m ScheduleConfirmation) Kind() Kind        { return KindScheduleConfirmation }
func (m ScheduleConfirmation) Recipient() string { return m.To }
func (m ScheduleConfirmation) Reference() string { return m.WithdrawId }

func (m ScheduleConfirmation) view(f formatter) any {
	return scheduleView{
		WithdrawId:    m.WithdrawId,
		AccountName:   m.AccountName,
		Method:        m.Method,
		Amount:        FormatAmount(m.Amount),
		PixKey:        MaskPixKey(m.PixKey),
		ScheduledTime: f.scheduleTime(m.ScheduledFor),
	}
}

// ScheduleError is sent when the settlement sweep fails a scheduled withdraw.
type ScheduleError struct {
	To           string
	WithdrawId   string
	AccountName  string
	Method       string
	Amount       decimal.Decimal
	PixKey       string
	ScheduledFor time.Time
	ErrorMessage string
}

func (m ScheduleError) Kind() Kind        { return KindScheduleError }
func (m ScheduleError) Recipient() string { return m.To }
func (m ScheduleError) Reference() string { return m.WithdrawId }

func (m ScheduleError) view(f formatter) any {
	return scheduleErrorView{
		scheduleView: scheduleView{
			WithdrawId:    m.WithdrawId,
			AccountName:   m.AccountName,
			Method:        m.Method,
			Amount:        FormatAmount(m.Amount),
			PixKey:        MaskPixKey(m.PixKey),
			ScheduledTime: f.scheduleTime(m.ScheduledFor),
		},
		ErrorMessage: m.ErrorMessage,
	}
}

type withdrawConfirmationView struct {
	WithdrawId   string
	AccountName  string
	Method       string
	Amount       string
	PixKey       string
	Scheduled    string
	ScheduledFor string
}

type scheduleView struct {
	WithdrawId    string
	AccountName   string
	Method        string
	Amount        string
	PixKey        string
	ScheduledTime string
}

type scheduleErrorView struct {
	scheduleView
	ErrorMessage string
}

func yesNo(v bool) string {
	if v {
		return "Sim"
	}
	return "Não"
}
