package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	pbvalidator "github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourorg/trade-approval/internal/middleware"
	"github.com/yourorg/trade-approval/internal/repository"
	"github.com/yourorg/trade-approval/internal/service"
)

var registerOnce sync.Once

func setupTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*pbvalidator.Validate)
		require.True(t, ok)
		err := v.RegisterValidation("currency", func(fl pbvalidator.FieldLevel) bool {
			code := fl.Field().String()
			if len(code) != 3 {
				return false
			}
			for _, r := range code {
				if r < 'A' || r > 'Z' {
					return false
				}
			}
			return true
		})
		require.NoError(t, err)
	})

	logger := zap.NewNop()
	tradeService := service.NewTradeService(repository.NewTradeRepository(logger), nil, logger)
	tradeHandler := NewTradeHandler(tradeService, logger)

	router := gin.New()
	trades := router.Group("/api/v1/trades")
	trades.Use(middleware.AuthMiddleware(logger))
	{
		trades.POST("", tradeHandler.CreateDraft)
		trades.GET("", tradeHandler.ListTrades)
		trades.GET("/:id", tradeHandler.GetTrade)
		trades.POST("/:id/actions", tradeHandler.SubmitAction)
		trades.GET("/:id/history", tradeHandler.GetHistory)
		trades.GET("/:id/versions/:seq", tradeHandler.GetVersion)
		trades.GET("/:id/diff", tradeHandler.GetDiff)
	}
	return router
}

// bearerToken mints a token the way the upstream gateway would. The middleware
// trusts the gateway's signature check, so any signing key works here.
func bearerToken(t *testing.T, subject, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  subject,
		"role": role,
	})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)
	return "Bearer " + signed
}

func performRequest(router *gin.Engine, method, path, token string, body any) *httptest.ResponseRecorder {
	var reader *bytes.Reader
	if body != nil {
		raw, _ := json.Marshal(body)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// testBase is fixed per test run so repeated bodies carry identical dates
var testBase = time.Now().UTC().Truncate(time.Hour)

func draftBody() map[string]any {
	return map[string]any{
		"trading_entity":    "ACME Capital",
		"counterparty":      "Globex",
		"direction":         "BUY",
		"notional_currency": "USD",
		"notional_amount":   "1000000",
		"underlying":        []string{"USD", "EUR"},
		"value_date":        testBase.Add(48 * time.Hour).Format(time.RFC3339),
		"delivery_date":     testBase.Add(96 * time.Hour).Format(time.RFC3339),
	}
}

// createTrade creates a draft over HTTP and returns its id
func createTrade(t *testing.T, router *gin.Engine, token string) string {
	t.Helper()
	w := performRequest(router, http.MethodPost, "/api/v1/trades", token, draftBody())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Trade struct {
			ID    string `json:"id"`
			State string `json:"state"`
		} `json:"trade"`
		Version struct {
			Seq int `json:"seq"`
		} `json:"version"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Trade.ID)
	assert.Equal(t, "DRAFT", resp.Trade.State)
	assert.Equal(t, 0, resp.Version.Seq)
	return resp.Trade.ID
}

func TestAuthRequired(t *testing.T) {
	router := setupTestRouter(t)

	w := performRequest(router, http.MethodGet, "/api/v1/trades", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/trades", "Basic abc", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/trades", "Bearer not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRejectsMissingSubjectOrRole(t *testing.T) {
	router := setupTestRouter(t)

	noSubject := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "requester"})
	signed, err := noSubject.SignedString([]byte("test-key"))
	require.NoError(t, err)
	w := performRequest(router, http.MethodGet, "/api/v1/trades", "Bearer "+signed, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/trades", bearerToken(t, "alice", "auditor"), nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateDraftEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	createTrade(t, router, bearerToken(t, "alice", "requester"))
}

func TestCreateDraftForbiddenForApprover(t *testing.T) {
	router := setupTestRouter(t)

	w := performRequest(router, http.MethodPost, "/api/v1/trades", bearerToken(t, "admin", "approver"), draftBody())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestCreateDraftBindingErrors(t *testing.T) {
	router := setupTestRouter(t)
	token := bearerToken(t, "alice", "requester")

	body := draftBody()
	delete(body, "counterparty")
	w := performRequest(router, http.MethodPost, "/api/v1/trades", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	body = draftBody()
	body["notional_currency"] = "usd"
	w = performRequest(router, http.MethodPost, "/api/v1/trades", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateDraftValidationError(t *testing.T) {
	router := setupTestRouter(t)

	body := draftBody()
	body["value_date"], body["delivery_date"] = body["delivery_date"], body["value_date"]
	w := performRequest(router, http.MethodPost, "/api/v1/trades", bearerToken(t, "alice", "requester"), body)
	require.Equal(t, http.StatusBadRequest, w.Code)

	var resp struct {
		Field string `json:"field"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "delivery_date", resp.Field)
}

func TestSubmitActionEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	requester := bearerToken(t, "alice", "requester")
	id := createTrade(t, router, requester)

	w := performRequest(router, http.MethodPost, "/api/v1/trades/"+id+"/actions", requester, map[string]any{"action": "SUBMIT"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Version struct {
			Seq   int    `json:"seq"`
			State string `json:"state"`
		} `json:"version"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Version.Seq)
	assert.Equal(t, "PENDING_APPROVAL", resp.Version.State)
}

func TestSubmitActionErrorMapping(t *testing.T) {
	router := setupTestRouter(t)
	requester := bearerToken(t, "alice", "requester")
	approver := bearerToken(t, "admin", "approver")
	id := createTrade(t, router, requester)

	// Approver lacks the SUBMIT permission
	w := performRequest(router, http.MethodPost, "/api/v1/trades/"+id+"/actions", approver, map[string]any{"action": "SUBMIT"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	// SEND_TO_EXECUTE is not legal from DRAFT
	w = performRequest(router, http.MethodPost, "/api/v1/trades/"+id+"/actions", approver, map[string]any{"action": "SEND_TO_EXECUTE"})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Unknown action is a validation failure
	w = performRequest(router, http.MethodPost, "/api/v1/trades/"+id+"/actions", requester, map[string]any{"action": "EXPLODE"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Unknown trade
	w = performRequest(router, http.MethodPost, "/api/v1/trades/missing/actions", requester, map[string]any{"action": "SUBMIT"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetTradeEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	requester := bearerToken(t, "alice", "requester")
	id := createTrade(t, router, requester)

	w := performRequest(router, http.MethodGet, "/api/v1/trades/"+id, requester, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var trade struct {
		ID          string `json:"id"`
		RequesterID string `json:"requester_id"`
		State       string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &trade))
	assert.Equal(t, id, trade.ID)
	assert.Equal(t, "alice", trade.RequesterID)
	assert.Equal(t, "DRAFT", trade.State)

	w = performRequest(router, http.MethodGet, "/api/v1/trades/missing", requester, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListTradesEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	requester := bearerToken(t, "alice", "requester")
	for i := 0; i < 3; i++ {
		createTrade(t, router, requester)
	}

	w := performRequest(router, http.MethodGet, "/api/v1/trades?page=1&limit=2", requester, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data       []json.RawMessage `json:"data"`
		Pagination struct {
			TotalItems  int `json:"totalItems"`
			TotalPages  int `json:"totalPages"`
			CurrentPage int `json:"currentPage"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Data, 2)
	assert.Equal(t, 3, resp.Pagination.TotalItems)
	assert.Equal(t, 2, resp.Pagination.TotalPages)
}

func TestHistoryAndVersionEndpoints(t *testing.T) {
	router := setupTestRouter(t)
	requester := bearerToken(t, "alice", "requester")
	id := createTrade(t, router, requester)

	w := performRequest(router, http.MethodPost, "/api/v1/trades/"+id+"/actions", requester, map[string]any{"action": "SUBMIT"})
	require.Equal(t, http.StatusOK, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/trades/"+id+"/history", requester, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var history struct {
		Data []struct {
			Seq    int    `json:"seq"`
			State  string `json:"state"`
			Action string `json:"action"`
		} `json:"data"`
		Pagination struct {
			TotalItems int `json:"totalItems"`
		} `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &history))
	require.Len(t, history.Data, 2)
	assert.Equal(t, 2, history.Pagination.TotalItems)
	assert.Equal(t, "REQUEST_NEW", history.Data[0].Action)
	assert.Equal(t, "SUBMIT", history.Data[1].Action)

	w = performRequest(router, http.MethodGet, "/api/v1/trades/"+id+"/versions/0", requester, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var version struct {
		Seq   int    `json:"seq"`
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &version))
	assert.Equal(t, 0, version.Seq)
	assert.Equal(t, "DRAFT", version.State)

	w = performRequest(router, http.MethodGet, "/api/v1/trades/"+id+"/versions/9", requester, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/trades/"+id+"/versions/abc", requester, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDiffEndpoint(t *testing.T) {
	router := setupTestRouter(t)
	requester := bearerToken(t, "alice", "requester")
	approver := bearerToken(t, "admin", "approver")
	id := createTrade(t, router, requester)

	w := performRequest(router, http.MethodPost, "/api/v1/trades/"+id+"/actions", requester, map[string]any{"action": "SUBMIT"})
	require.Equal(t, http.StatusOK, w.Code)

	update := draftBody()
	delete(update, "trading_entity")
	update["direction"] = "SELL"
	w = performRequest(router, http.MethodPost, "/api/v1/trades/"+id+"/actions", approver, map[string]any{
		"action":  "REQUEST_UPDATE",
		"details": update,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = performRequest(router, http.MethodGet, fmt.Sprintf("/api/v1/trades/%s/diff?from=0&to=2", id), requester, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		From    int `json:"from"`
		To      int `json:"to"`
		Changes []struct {
			Field string `json:"field"`
			Old   string `json:"old"`
			New   string `json:"new"`
		} `json:"changes"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.From)
	assert.Equal(t, 2, resp.To)
	require.Len(t, resp.Changes, 1)
	assert.Equal(t, "direction", resp.Changes[0].Field)
	assert.Equal(t, "BUY", resp.Changes[0].Old)
	assert.Equal(t, "SELL", resp.Changes[0].New)

	w = performRequest(router, http.MethodGet, "/api/v1/trades/"+id+"/diff?from=0", requester, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = performRequest(router, http.MethodGet, "/api/v1/trades/"+id+"/diff?from=0&to=9", requester, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
