package httpapi

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"time"

	"pix-withdraw-go/internal/models"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// ScheduleLayout is the wire format of the schedule field, read in the
// configured timezone.
const ScheduleLayout = "2006-01-02 15:04"

type withdrawRequest struct {
	Method   string      `json:"method" validate:"required,oneof=PIX pix"`
	Pix      *pixRequest `json:"pix" validate:"required_if=Method PIX"`
	Amount   any         `json:"amount" validate:"required"`
	Schedule *string     `json:"schedule" validate:"omitempty,datetime=2006-01-02 15:04"`
}

type pixRequest struct {
	Type string `json:"type" validate:"required,oneof=email"`
	Key  string `json:"key" validate:"required,email"`
}

// validationMessages maps "<json path>.<tag>" to the message shown to clients.
var validationMessages = map[string]string{
	"method.required":   "O método é obrigatório.",
	"method.oneof":      "O método deve ser PIX.",
	"pix.required_if":   "A chave PIX é obrigatória.",
	"pix.type.required": "Apenas chaves PIX do tipo email são aceitas no momento.",
	"pix.type.oneof":    "Apenas chaves PIX do tipo email são aceitas no momento.",
	"pix.key.required":  "A chave PIX é obrigatória.",
	"pix.key.email":     "A chave PIX deve ser um email válido.",
	"amount.required":   "O valor é obrigatório.",
	"schedule.datetime": "O agendamento deve estar no formato YYYY-MM-DD HH:MM.",
}

const (
	msgAmountNumeric   = "O valor deve ser numérico."
	msgAmountMin       = "O valor mínimo é 1."
	msgScheduleFuture  = "A data de agendamento deve ser no futuro."
	msgScheduleHorizon = "A data de agendamento não pode ser maior que 7 dias."
	msgInvalidBody     = "O corpo da requisição deve ser um JSON válido."
)

var minimumAmount = decimal.NewFromInt(1)

// Validator turns a withdraw request body into a WithdrawCommand.
type Validator struct {
	validate *validator.Validate
	location *time.Location
	horizon  time.Duration
	now      func() time.Time
}

func NewValidator(location *time.Location, horizon time.Duration, now func() time.Time) *Validator {
	if location == nil {
		location = time.UTC
	}
	if now == nil {
		now = time.Now
	}

	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{validate: validate, location: location, horizon: horizon, now: now}
}

// ValidationError lists every rule the request broke.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

// Parse decodes and validates body. Failures are returned as *ValidationError.
func (v *Validator) Parse(body []byte) (models.WithdrawCommand, error) {
	var req withdrawRequest
	decoder := json.NewDecoder(strings.NewReader(string(body)))
	decoder.UseNumber()
	if err := decoder.Decode(&req); err != nil {
		return models.WithdrawCommand{}, &ValidationError{Messages: []string{msgInvalidBody}}
	}
	// PIX and pix are the only accepted spellings.
	if req.Method == "pix" {
		req.Method = models.MethodPix
	}

	var messages []string
	if err := v.validate.Struct(&req); err != nil {
		var fieldErrors validator.ValidationErrors
		if !errors.As(err, &fieldErrors) {
			return models.WithdrawCommand{}, err
		}
		for _, fe := range fieldErrors {
			messages = append(messages, messageFor(fe))
		}
	}

	amount, amountMessage := parseAmount(req.Amount)
	if amountMessage != "" {
		messages = append(messages, amountMessage)
	}

	var scheduledFor *time.Time
	if req.Schedule != nil && *req.Schedule != "" {
		at, scheduleMessage := v.parseSchedule(*req.Schedule)
		if scheduleMessage != "" {
			messages = append(messages, scheduleMessage)
		}
		scheduledFor = at
	}

	if len(messages) > 0 {
		return models.WithdrawCommand{}, &ValidationError{Messages: dedupe(messages)}
	}

	return models.WithdrawCommand{
		Method:       req.Method,
		Amount:       amount,
		ScheduledFor: scheduledFor,
		Pix:          &models.PixCommand{Type: req.Pix.Type, Key: req.Pix.Key},
	}, nil
}

func messageFor(fe validator.FieldError) string {
	// Namespace is "withdrawRequest.pix.key"; drop the struct name.
	path := fe.Namespace()
	if i := strings.Index(path, "."); i >= 0 {
		path = path[i+1:]
	}
	if message, ok := validationMessages[path+"."+fe.Tag()]; ok {
		return message
	}
	return path + " is invalid"
}

// parseAmount accepts a JSON number or a numeric string.
func parseAmount(raw any) (decimal.Decimal, string) {
	var text string
	switch value := raw.(type) {
	case nil:
		return decimal.Zero, ""
	case json.Number:
		text = value.String()
	case string:
		text = strings.TrimSpace(value)
		if text == "" {
			// reported by the required rule
			return decimal.Zero, ""
		}
	default:
		return decimal.Zero, msgAmountNumeric
	}

	amount, err := decimal.NewFromString(text)
	if err != nil {
		return decimal.Zero, msgAmountNumeric
	}
	if amount.LessThan(minimumAmount) {
		return decimal.Zero, msgAmountMin
	}
	return amount.Round(2), ""
}

func (v *Validator) parseSchedule(value string) (*time.Time, string) {
	at, err := time.ParseInLocation(ScheduleLayout, value, v.location)
	if err != nil {
		// reported by the datetime rule
		return nil, ""
	}

	now := v.now()
	if !at.After(now) {
		return nil, msgScheduleFuture
	}
	if v.horizon > 0 && at.After(now.Add(v.horizon)) {
		return nil, msgScheduleHorizon
	}
	return &at, ""
}

func dedupe(messages []string) []string {
	seen := make(map[string]bool, len(messages))
	unique := messages[:0]
	for _, message := range messages {
		if seen[message] {
			continue
		}
		seen[message] = true
		unique = append(unique, message)
	}
	return unique
}
