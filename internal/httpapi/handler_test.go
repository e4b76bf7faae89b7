package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pix-withdraw-go/internal/api"
	"pix-withdraw-go/internal/database"
	"pix-withdraw-go/internal/notify"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const joaoId = "550e8400-e29b-41d4-a716-446655440001"

type discardNotifier struct{}

func (discardNotifier) Notify(context.Context, notify.Message) error { return nil }
func (discardNotifier) Close() error                                 { return nil }

func setupTestServer(t *testing.T) (*httptest.Server, *database.Service) {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	dbService := database.NewServiceFromDB(db)
	require.NoError(t, dbService.InitSchema(context.Background(), true))
	t.Cleanup(dbService.Close)

	service, err := api.NewWithdrawService(api.WithdrawServiceConfig{Store: dbService, Notifier: discardNotifier{}})
	require.NoError(t, err)

	validator := NewValidator(time.UTC, 7*24*time.Hour, time.Now)
	server := httptest.NewServer(NewRouter(NewHandler(service, validator), zap.NewNop(), 5*time.Second))
	t.Cleanup(server.Close)
	return server, dbService
}

func postWithdraw(t *testing.T, server *httptest.Server, accountId, body string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Post(server.URL+"/account/"+accountId+"/balance/withdraw", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, decodeBody(t, resp)
}

func get(t *testing.T, server *httptest.Server, path string) (int, map[string]any) {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	return resp.StatusCode, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	var body map[string]any
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	require.NoError(t, decoder.Decode(&body))
	return body
}

func TestCreateImmediateWithdrawEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	status, body := postWithdraw(t, server, joaoId,
		`{"method":"PIX","pix":{"type":"email","key":"joao.silva@example.com"},"amount":150.75,"schedule":null}`)

	require.Equal(t, http.StatusOK, status, "body: %v", body)
	assert.Equal(t, json.Number("150.75"), body["amount"])
	assert.Equal(t, json.Number("849.25"), body["new_balance"])
	assert.Equal(t, joaoId, body["account_id"])
	assert.NotEmpty(t, body["withdraw_id"])

	status, account := get(t, server, "/account/"+joaoId)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, json.Number("849.25"), account["balance"])

	withdrawId, _ := body["withdraw_id"].(string)
	status, withdraw := get(t, server, "/account/"+joaoId+"/balance/withdraw/"+withdrawId)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "executed", withdraw["status"])
	pix, _ := withdraw["pix"].(map[string]any)
	assert.Equal(t, "joao.silva@example.com", pix["key"])
}

func TestCreateScheduledWithdrawEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)
	schedule := time.Now().UTC().Add(48 * time.Hour).Format(ScheduleLayout)

	status, body := postWithdraw(t, server, joaoId,
		`{"method":"pix","pix":{"type":"email","key":"joao.silva@example.com"},"amount":"100","schedule":"`+schedule+`"}`)

	require.Equal(t, http.StatusOK, status, "body: %v", body)
	assert.Equal(t, json.Number("1000.00"), body["new_balance"])

	withdrawId, _ := body["withdraw_id"].(string)
	_, withdraw := get(t, server, "/account/"+joaoId+"/balance/withdraw/"+withdrawId)
	assert.Equal(t, "pending", withdraw["status"])
}

func TestCreateWithdrawInsufficientBalanceEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	status, body := postWithdraw(t, server, joaoId,
		`{"method":"PIX","pix":{"type":"email","key":"joao.silva@example.com"},"amount":1500}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Insufficient balance", body["message"])
	assert.Equal(t, json.Number("1000.00"), body["balance"])
	assert.Equal(t, json.Number("1500.00"), body["requested"])
}

func TestCreateWithdrawUnknownAccountEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	status, body := postWithdraw(t, server, "550e8400-e29b-41d4-a716-446655449999",
		`{"method":"PIX","pix":{"type":"email","key":"joao.silva@example.com"},"amount":10}`)

	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Conta não encontrada", body["message"])
}

func TestCreateWithdrawValidationEndpoint(t *testing.T) {
	server, dbService := setupTestServer(t)

	status, body := postWithdraw(t, server, joaoId, `{"method":"TED","amount":0.5}`)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["message"])
	errs, _ := body["errors"].([]any)
	assert.Contains(t, errs, "O método deve ser PIX.")
	assert.Contains(t, errs, "O valor mínimo é 1.")

	account, err := dbService.GetAccount(context.Background(), joaoId)
	require.NoError(t, err)
	assert.Equal(t, "1000", account.Balance.String())
}

func TestGetWithdrawNotFoundEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	status, body := get(t, server, "/account/"+joaoId+"/balance/withdraw/missing")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Saque não encontrado", body["message"])
}

func TestHealthEndpoint(t *testing.T) {
	server, _ := setupTestServer(t)

	status, body := get(t, server, "/health")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ok", body["status"])

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
