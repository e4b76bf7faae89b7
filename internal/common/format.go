package common

import (
	"fmt"
	"strings"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/notify"

	"github.com/shopspring/decimal"
)

const (
	// Default separator widths
	DefaultWidth = 80
	WideWidth    = 100
)

// PrintSeparator prints a separator line with the specified character and width
func PrintSeparator(char string, width int) {
	fmt.Println(strings.Repeat(char, width))
}

// PrintHeader prints a formatted header with title and separators
func PrintHeader(title string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(title)
	PrintSeparator("=", width)
}

// PrintFooter prints a formatted footer with message and separators
func PrintFooter(message string, width int) {
	fmt.Println("\n" + strings.Repeat("=", width))
	fmt.Println(message)
	fmt.Println(strings.Repeat("=", width) + "\n")
}

// BoxPrefix returns the box-drawing prefix for list items
func BoxPrefix(isLast bool) string {
	if isLast {
		return "└  "
	}
	return "├  "
}

// BoxDetailPrefix returns the prefix for detail lines under list items
func BoxDetailPrefix(isLast bool) string {
	if isLast {
		return "   "
	}
	return "│  "
}

// FormatBRL renders an amount as "R$ 1.234,56".
func FormatBRL(amount decimal.Decimal) string {
	return "R$ " + notify.FormatAmount(amount)
}

// StatusLabel is the operator-facing label of a withdraw state.
func StatusLabel(withdraw *models.Withdraw) string {
	switch withdraw.Status() {
	case models.WithdrawStatusExecuted:
		return "executado"
	case models.WithdrawStatusDone:
		return "agendado, liquidado"
	case models.WithdrawStatusError:
		return "agendado, falhou"
	default:
		if withdraw.ScheduledFor != nil {
			return "agendado para " + withdraw.ScheduledFor.Format("2006-01-02 15:04") + " UTC"
		}
		return "pendente"
	}
}
