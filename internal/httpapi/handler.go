package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"pix-withdraw-go/internal/api"
	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

// WithdrawService is the part of api.WithdrawService the HTTP layer uses.
type WithdrawService interface {
	HealthCheck(ctx context.Context) error
	GetAccount(ctx context.Context, accountId string) (*models.Account, error)
	CreateWithdraw(ctx context.Context, account *models.Account, cmd models.WithdrawCommand) (*models.Withdraw, error)
	GetWithdraw(ctx context.Context, accountId, withdrawId string) (*models.Withdraw, *models.PixDetail, error)
}

type Handler struct {
	service   WithdrawService
	validator *Validator
}

func NewHandler(service WithdrawService, validator *Validator) *Handler {
	return &Handler{service: service, validator: validator}
}

type messageResponse struct {
	Message string `json:"message"`
}

type validationResponse struct {
	Message string   `json:"message"`
	Errors  []string `json:"errors"`
}

type insufficientBalanceResponse struct {
	Message   string      `json:"message"`
	Balance   json.Number `json:"balance"`
	Requested json.Number `json:"requested"`
}

type withdrawCreatedResponse struct {
	Amount     json.Number `json:"amount"`
	AccountId  string      `json:"account_id"`
	WithdrawId string      `json:"withdraw_id"`
	NewBalance json.Number `json:"new_balance"`
}

type accountResponse struct {
	Id      string      `json:"id"`
	Name    string      `json:"name"`
	Balance json.Number `json:"balance"`
}

type pixResponse struct {
	Type string `json:"type"`
	Key  string `json:"key"`
}

type withdrawResponse struct {
	Id           string       `json:"id"`
	AccountId    string       `json:"account_id"`
	Method       string       `json:"method"`
	Amount       json.Number  `json:"amount"`
	Scheduled    bool         `json:"scheduled"`
	ScheduledFor *time.Time   `json:"scheduled_for"`
	Status       string       `json:"status"`
	ErrorReason  string       `json:"error_reason,omitempty"`
	Pix          *pixResponse `json:"pix,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

const (
	msgAccountNotFound  = "Conta não encontrada"
	msgWithdrawNotFound = "Saque não encontrado"
	msgValidationFailed = "Validation failed"
	msgInsufficient     = "Insufficient balance"
	msgInternalError    = "Internal Server Error"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.service.HealthCheck(r.Context()); err != nil {
		zap.L().Error("Health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, accountResponse{
		Id:      account.Id,
		Name:    account.Name,
		Balance: money(account.Balance),
	})
}

func (h *Handler) CreateWithdraw(w http.ResponseWriter, r *http.Request) {
	account, ok := h.loadAccount(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, validationResponse{Message: msgValidationFailed, Errors: []string{msgInvalidBody}})
		return
	}

	cmd, err := h.validator.Parse(body)
	if err != nil {
		var validationErr *ValidationError
		if errors.As(err, &validationErr) {
			writeJSON(w, http.StatusBadRequest, validationResponse{Message: msgValidationFailed, Errors: validationErr.Messages})
			return
		}
		h.internalError(w, r, err)
		return
	}

	ctx := models.WithWithdrawOrigin(r.Context(), &models.WithdrawOrigin{
		Channel:   models.OriginHTTP,
		RequestId: middleware.GetReqID(r.Context()),
	})
	withdraw, err := h.service.CreateWithdraw(ctx, account, cmd)
	if err != nil {
		var balanceErr *api.InsufficientBalanceError
		switch {
		case errors.As(err, &balanceErr):
			writeJSON(w, http.StatusBadRequest, insufficientBalanceResponse{
				Message:   msgInsufficient,
				Balance:   money(balanceErr.Balance),
				Requested: money(balanceErr.Requested),
			})
		case errors.Is(err, store.ErrAccountNotFound):
			writeJSON(w, http.StatusNotFound, messageResponse{Message: msgAccountNotFound})
		case errors.Is(err, api.ErrInvalidAmount), errors.Is(err, api.ErrUnsupportedMethod),
			errors.Is(err, api.ErrPixDetailRequired), errors.Is(err, api.ErrUnsupportedPixType):
			writeJSON(w, http.StatusBadRequest, validationResponse{Message: msgValidationFailed, Errors: []string{err.Error()}})
		default:
			h.internalError(w, r, err)
		}
		return
	}

	result := api.NewWithdrawResult(withdraw, account)
	writeJSON(w, http.StatusOK, withdrawCreatedResponse{
		Amount:     money(result.Amount),
		AccountId:  result.AccountId,
		WithdrawId: result.WithdrawId,
		NewBalance: money(result.NewBalance),
	})
}

func (h *Handler) GetWithdraw(w http.ResponseWriter, r *http.Request) {
	accountId := chi.URLParam(r, "accountId")
	withdrawId := chi.URLParam(r, "withdrawId")

	withdraw, pix, err := h.service.GetWithdraw(r.Context(), accountId, withdrawId)
	if err != nil {
		if errors.Is(err, store.ErrWithdrawNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse{Message: msgWithdrawNotFound})
			return
		}
		h.internalError(w, r, err)
		return
	}

	resp := withdrawResponse{
		Id:           withdraw.Id,
		AccountId:    withdraw.AccountId,
		Method:       withdraw.Method,
		Amount:       money(withdraw.Amount),
		Scheduled:    withdraw.Scheduled,
		ScheduledFor: withdraw.ScheduledFor,
		Status:       withdraw.Status(),
		ErrorReason:  withdraw.ErrorReason,
		CreatedAt:    withdraw.CreatedAt,
	}
	if pix != nil {
		resp.Pix = &pixResponse{Type: pix.Type, Key: pix.Key}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) loadAccount(w http.ResponseWriter, r *http.Request) (*models.Account, bool) {
	account, err := h.service.GetAccount(r.Context(), chi.URLParam(r, "accountId"))
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			writeJSON(w, http.StatusNotFound, messageResponse{Message: msgAccountNotFound})
			return nil, false
		}
		h.internalError(w, r, err)
		return nil, false
	}
	return account, true
}

func (h *Handler) internalError(w http.ResponseWriter, r *http.Request, err error) {
	zap.L().Error("Request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", middleware.GetReqID(r.Context())),
		zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, messageResponse{Message: msgInternalError})
}

// money renders an amount as a JSON number with two decimals.
func money(amount decimal.Decimal) json.Number {
	return json.Number(amount.StringFixed(2))
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zap.L().Warn("Failed to write response", zap.Error(err))
	}
}
