package models

import "context"

type withdrawOriginKey struct{}

const (
	OriginHTTP       = "http"
	OriginCLI        = "cli"
	OriginSettlement = "settlement"
)

// WithdrawOrigin carries where a withdraw operation was triggered from so
// logs and the payout journal can record it.
type WithdrawOrigin struct {
	Channel   string // http, cli or settlement
	RequestId string // chi request id when triggered over HTTP
}

// WithWithdrawOrigin attaches origin data to a context.
func WithWithdrawOrigin(ctx context.Context, origin *WithdrawOrigin) context.Context {
	return context.WithValue(ctx, withdrawOriginKey{}, origin)
}

// GetWithdrawOrigin retrieves origin data from context, or nil if absent.
func GetWithdrawOrigin(ctx context.Context) *WithdrawOrigin {
	origin, _ := ctx.Value(withdrawOriginKey{}).(*WithdrawOrigin)
	return origin
}
