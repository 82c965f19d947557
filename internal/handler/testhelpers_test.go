package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/servicehub/service-booking/internal/application"
	"github.com/servicehub/service-booking/internal/realtime"
	"github.com/servicehub/service-booking/internal/repository"
	"github.com/servicehub/service-booking/pkg/auth"
	"github.com/servicehub/service-booking/pkg/kafka"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type nopPublisher struct{}

func (nopPublisher) PublishEvent(context.Context, string, kafka.CloudEvent) error { return nil }

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Total int64 `json:"total"`
	} `json:"meta"`
}

type testServer struct {
	router     *gin.Engine
	hub        *realtime.Hub
	clientID   uuid.UUID
	providerID uuid.UUID
	tokens     map[string]string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, repository.AutoMigrate(db))

	log := zap.NewNop()
	hub := realtime.NewHub(log)
	t.Cleanup(hub.Close)

	catalog := application.NewCatalogService(repository.NewGormServiceRepository(db), log)
	bookings := application.NewBookingService(
		repository.NewGormBookingRepository(db), catalog, catalog, hub, nopPublisher{}, log,
	)

	jwtManager := auth.NewJWTManager("handler-test-secret", time.Hour, 24*time.Hour)
	router := gin.New()
	api := router.Group("")
	NewBookingHandler(bookings).RegisterRoutes(api, jwtManager)
	NewAdminBookingHandler(bookings).RegisterRoutes(api, jwtManager)
	NewServiceHandler(catalog).RegisterRoutes(api, jwtManager)
	NewRealtimeHandler(hub, log).RegisterRoutes(api, jwtManager)

	s := &testServer{
		router:     router,
		hub:        hub,
		clientID:   uuid.New(),
		providerID: uuid.New(),
		tokens:     map[string]string{},
	}
	issue := func(name string, id uuid.UUID, role auth.Role) {
		token, err := jwtManager.GenerateAccessToken(id, role)
		require.NoError(t, err)
		s.tokens[name] = token
	}
	issue("client", s.clientID, auth.RoleClient)
	issue("provider", s.providerID, auth.RoleProvider)
	issue("stranger", uuid.New(), auth.RoleClient)
	issue("other-provider", uuid.New(), auth.RoleProvider)
	issue("admin", uuid.New(), auth.RoleAdmin)
	return s
}

// do sends a request as the named user ("" for anonymous) and decodes the envelope.
func (s *testServer) do(t *testing.T, method, path, as string, body interface{}) (int, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if as != "" {
		req.Header.Set("Authorization", "Bearer "+s.tokens[as])
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec.Code, env
}

func decodeData(t *testing.T, env envelope, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, v))
}

func (s *testServer) createService(t *testing.T) application.ServiceDTO {
	t.Helper()
	code, env := s.do(t, http.MethodPost, "/api/v1/services", "provider", gin.H{
		"title":    "Deep cleaning",
		"category": "cleaning",
		"price":    800,
	})
	require.Equal(t, http.StatusCreated, code)
	var svc application.ServiceDTO
	decodeData(t, env, &svc)
	return svc
}

func (s *testServer) createBooking(t *testing.T) application.BookingDTO {
	t.Helper()
	svc := s.createService(t)
	code, env := s.do(t, http.MethodPost, "/api/v1/bookings", "client", gin.H{
		"serviceId":     svc.ID,
		"scheduledDate": time.Now().Add(48 * time.Hour).UTC(),
		"notes":         "ring twice",
	})
	require.Equal(t, http.StatusCreated, code)
	var bk application.BookingDTO
	decodeData(t, env, &bk)
	return bk
}
