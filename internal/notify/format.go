package notify

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// formatter renders timestamps in the bank's display zone.
type formatter struct {
	location *time.Location
}

func (f formatter) dateTime(t time.Time) string {
	return t.In(f.location).Format("02/01/2006 15:04")
}

func (f formatter) scheduleTime(t time.Time) string {
	return t.In(f.location).Format("02/01/2006 às 15:04")
}

// FormatAmount renders a decimal with two places, "." as the thousands
// separator and "," as the decimal separator (1.234,56).
func FormatAmount(amount decimal.Decimal) string {
	fixed := amount.Abs().StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	if amount.IsNegative() {
		b.WriteByte('-')
	}
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(digit)
	}
	b.WriteByte(',')
	b.WriteString(fracPart)
	return b.String()
}

// MaskPixKey hides most of a PIX key. For email keys the domain stays
// visible: joao.silva@example.com -> jo********@example.com.
func MaskPixKey(key string) string {
	if local, domain, ok := strings.Cut(key, "@"); ok {
		return maskKeep(local, 2) + "@" + domain
	}
	return maskKeep(key, 3)
}

func maskKeep(s string, keep int) string {
	runes := []rune(s)
	if len(runes) <= keep {
		keep = 1
	}
	if len(runes) <= 1 {
		return strings.Repeat("*", 3)
	}
	hidden := len(runes) - keep
	if hidden < 3 {
		hidden = 3
	}
	return string(runes[:keep]) + strings.Repeat("*", hidden)
}
