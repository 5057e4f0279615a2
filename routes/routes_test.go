package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinicagenda/config"
	bookingRepo "clinicagenda/database/repository/booking"
	"clinicagenda/handlers"
	"clinicagenda/services/booking"
	"clinicagenda/services/intelligence"
	"clinicagenda/services/notification"
	"clinicagenda/services/schedule"
	"clinicagenda/services/session"
)

func newTestRouter(t *testing.T) (*gin.Engine, booking.Ledger) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := session.NewRedisStore(client, time.Hour)

	repo := bookingRepo.NewMemoryBookingRepo()
	engine, err := schedule.NewEngine("08:00-12:00,14:00-18:00", repo, zap.NewNop())
	require.NoError(t, err)
	ledger := &booking.DefaultLedger{Repo: repo, Schedule: engine, Logger: zap.NewNop()}
	machine := session.NewMachine(store, ledger, engine, nil, zap.NewNop())

	hb := &HandlerBundle{
		Chat:         handlers.NewChatHandler(machine, intelligence.NewLocalExtractor(), notification.NoopNotifier{}, zap.NewNop()),
		Availability: handlers.NewAvailabilityHandler(engine),
		Admin:        handlers.NewAdminHandler(ledger),
	}

	r := gin.New()
	RegisterRoutes(r, hb)
	return r, ledger
}

func doJSON(r *gin.Engine, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAvailabilityRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/horarios?data=20/03/2026", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Data     string   `json:"data"`
		Horarios []string `json:"horarios"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "20/03/2026", resp.Data)
	assert.Len(t, resp.Horarios, 8)
}

func TestAvailabilityRouteRequiresDate(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodGet, "/api/horarios", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChatRoute(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/chat", `{"sessionId":"web-1","text":"oi"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Reply string `json:"reply"`
		State string `json:"state"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Reply, "Olá!")
	assert.Equal(t, "collecting", resp.State)
}

func TestChatRouteRejectsMissingFields(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/chat", `{"text":"oi"}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestTelegramWebhook(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/webhook",
		`{"message":{"chat":{"id":123456},"text":"oi"}}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)

	// Updates without a message are acknowledged and skipped.
	w = doJSON(r, http.MethodPost, "/webhook", `{"update_id":1}`, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ignored"`)
}

func TestAdminRoutesRequireToken(t *testing.T) {
	r, _ := newTestRouter(t)

	config.AppConfig.AdminToken = ""
	w := doJSON(r, http.MethodGet, "/api/admin/consultas", "", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	config.AppConfig.AdminToken = "secret"
	defer func() { config.AppConfig.AdminToken = "" }()

	w = doJSON(r, http.MethodGet, "/api/admin/consultas", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/admin/consultas", "", map[string]string{
		"Authorization": "Bearer wrong",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = doJSON(r, http.MethodGet, "/api/admin/consultas", "", map[string]string{
		"Authorization": "Bearer secret",
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAdminCancelBooking(t *testing.T) {
	r, ledger := newTestRouter(t)

	config.AppConfig.AdminToken = "secret"
	defer func() { config.AppConfig.AdminToken = "" }()
	auth := map[string]string{"Authorization": "Bearer secret"}

	record, err := ledger.Reserve(context.Background(), booking.ReserveRequest{
		SessionID:   "chat-1",
		PatientName: "Maria Silva",
		Phone:       "11 98765-4321",
		Date:        "20/03/2026",
		Time:        "10:00",
		Modality:    "online",
	})
	require.NoError(t, err)

	w := doJSON(r, http.MethodDelete, "/api/admin/consultas/"+record.ID, "", auth)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(r, http.MethodDelete, "/api/admin/consultas/unknown-id", "", auth)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
