package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	loc, err := time.LoadLocation("America/Sao_Paulo")
	if err != nil {
		loc = time.FixedZone("BRT", -3*60*60)
	}
	renderer, err := NewRenderer(RendererConfig{
		FromAddress: "noreply@hyperfbank.com",
		FromName:    "Hyperf Bank",
		Location:    loc,
	})
	require.NoError(t, err)
	return renderer
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"0", "0,00"},
		{"1", "1,00"},
		{"150.75", "150,75"},
		{"849.25", "849,25"},
		{"1234.56", "1.234,56"},
		{"2500.5", "2.500,50"},
		{"1234567.891", "1.234.567,89"},
		{"-1500", "-1.500,00"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAmount(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestMaskPixKey(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"joao.silva@example.com", "jo********@example.com"},
		{"ab@example.com", "a***@example.com"},
		{"a@example.com", "***@example.com"},
		{"+5511999998888", "+55***********"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, MaskPixKey(tt.in))
		})
	}
}

func TestRenderWithdrawConfirmation(t *testing.T) {
	renderer := newTestRenderer(t)

	email, err := renderer.Render(WithdrawConfirmation{
		To:          "joao.silva@example.com",
		WithdrawId:  "w-1",
		AccountName: "João Silva",
		Method:      "PIX",
		Amount:      decimal.RequireFromString("1234.56"),
		PixKey:      "joao.silva@example.com",
	})
	require.NoError(t, err)

	assert.Equal(t, KindWithdrawConfirmation, email.Kind)
	assert.Equal(t, "Confirmação de Saque - Hyperf Bank", email.Subject)
	assert.Equal(t, "joao.silva@example.com", email.To)
	assert.Equal(t, "noreply@hyperfbank.com", email.From)
	assert.Contains(t, email.HTML, "R$ 1.234,56")
	assert.Contains(t, email.HTML, "jo********@example.com")
	assert.NotContains(t, email.HTML, "joao.silva@example.com")
	assert.Contains(t, email.HTML, "Não")
	assert.Contains(t, email.HTML, "N/A")
	assert.Contains(t, email.HTML, "w-1")
}

func TestRenderScheduleTemplates(t *testing.T) {
	renderer := newTestRenderer(t)
	scheduledFor := time.Date(2026, 1, 15, 13, 0, 0, 0, time.UTC) // 10:00 in São Paulo

	email, err := renderer.Render(ScheduleConfirmation{
		To:           "maria@example.com",
		WithdrawId:   "w-2",
		AccountName:  "Maria Santos",
		Method:       "PIX",
		Amount:       decimal.RequireFromString("100"),
		PixKey:       "maria@example.com",
		ScheduledFor: scheduledFor,
	})
	require.NoError(t, err)
	assert.Equal(t, "Confirmação de Agendamento de Saque - Hyperf Bank", email.Subject)
	assert.Contains(t, email.HTML, "15/01/2026 às 10:00")

	email, err = renderer.Render(ScheduleError{
		To:           "maria@example.com",
		WithdrawId:   "w-3",
		AccountName:  "Maria Santos",
		Method:       "PIX",
		Amount:       decimal.RequireFromString("1500"),
		PixKey:       "maria@example.com",
		ScheduledFor: scheduledFor,
		ErrorMessage: "Saldo insuficiente.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Erro no Processamento de Saque Agendado - Hyperf Bank", email.Subject)
	assert.Contains(t, email.HTML, "Saldo insuficiente.")
	assert.Contains(t, email.HTML, "R$ 1.500,00")
	assert.Contains(t, email.HTML, "Maria Santos")
}

func TestRenderRejectsMissingRecipient(t *testing.T) {
	renderer := newTestRenderer(t)

	_, err := renderer.Render(WithdrawConfirmation{WithdrawId: "w-4", Amount: decimal.NewFromInt(1)})
	assert.Error(t, err)
}

func TestEveryKindHasATemplate(t *testing.T) {
	for _, kind := range []Kind{KindWithdrawConfirmation, KindScheduleConfirmation, KindScheduleError} {
		entry, ok := templateSpecs[kind]
		require.True(t, ok, "Expected template for %s", kind)
		assert.NotEmpty(t, entry.subject)
	}
}

type fakeKafkaWriter struct {
	messages []kafka.Message
	err      error
}

func (f *fakeKafkaWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msgs...)
	return nil
}

func (f *fakeKafkaWriter) Close() error { return nil }

func TestKafkaNotifierPublishesRenderedEmail(t *testing.T) {
	writer := &fakeKafkaWriter{}
	notifier := &KafkaNotifier{renderer: newTestRenderer(t), writer: writer}

	err := notifier.Notify(context.Background(), WithdrawConfirmation{
		To:          "pedro@example.com",
		WithdrawId:  "w-5",
		AccountName: "Pedro Costa",
		Method:      "PIX",
		Amount:      decimal.RequireFromString("10"),
		PixKey:      "pedro@example.com",
	})
	require.NoError(t, err)
	require.Len(t, writer.messages, 1)
	assert.Equal(t, "w-5", string(writer.messages[0].Key))

	var event emailEvent
	require.NoError(t, json.Unmarshal(writer.messages[0].Value, &event))
	assert.Equal(t, "withdraw_confirmation", event.Kind)
	assert.Equal(t, "pedro@example.com", event.To)
	assert.Contains(t, event.HTML, "R$ 10,00")

	writer.err = errors.New("broker down")
	err = notifier.Notify(context.Background(), WithdrawConfirmation{To: "pedro@example.com", WithdrawId: "w-6", Amount: decimal.NewFromInt(1)})
	assert.Error(t, err)
}
