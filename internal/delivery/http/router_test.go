package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "eventhub/docs"
	"eventhub/internal/delivery/http/controllers"
	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubVerifier struct{}

func (stubVerifier) Verify(_ context.Context, token string) (domain.Principal, error) {
	switch token {
	case "user":
		return domain.Principal{UserID: "u1", Role: domain.RoleUser}, nil
	case "admin":
		return domain.Principal{UserID: "a1", Role: domain.RoleAdmin}, nil
	}
	return domain.Principal{}, domain.ErrUnauthorized
}

// stubEventService answers List and Get; other methods are not reached by these tests.
type stubEventService struct {
	domain.EventService
	lastCaller *domain.Principal
}

func (s *stubEventService) List(_ context.Context, caller *domain.Principal, _ domain.EventFilter, _ domain.PaginationParams) ([]*domain.Event, int, error) {
	s.lastCaller = caller
	return nil, 0, nil
}

func (s *stubEventService) GetBySlug(_ context.Context, _ *domain.Principal, slug string) (*domain.Event, error) {
	return &domain.Event{ID: "e1", Slug: slug, Status: domain.EventPublished}, nil
}

type stubUserService struct{ domain.UserService }

func (stubUserService) List(_ context.Context, _ domain.Principal, _ domain.UserFilter, _ domain.PaginationParams) ([]*domain.User, int, error) {
	return []*domain.User{{ID: "u1"}}, 1, nil
}

func newTestHandler(events *stubEventService) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	c := Controllers{
		Auth:        controllers.NewAuthController(logger, nil),
		User:        controllers.NewUserController(logger, stubUserService{}),
		Consent:     controllers.NewConsentController(logger, nil),
		Event:       controllers.NewEventController(logger, events),
		Show:        controllers.NewShowController(logger, nil),
		NearbyPlace: controllers.NewNearbyPlaceController(logger, nil),
		Waitlist:    controllers.NewWaitlistController(logger, nil),
		Venue:       controllers.NewVenueController(logger, nil),
		Category:    controllers.NewCategoryController(logger, nil),
		Invitation:  controllers.NewInvitationController(logger, nil),
		Audit:       controllers.NewAuditController(logger, nil),
	}
	return NewHandler(NewRouter(c, stubVerifier{}, logger), []string{"https://app.example.com"}, logger)
}

func TestRouter(t *testing.T) {
	events := &stubEventService{}
	handler := newTestHandler(events)

	tests := []struct {
		name       string
		method     string
		path       string
		token      string
		wantStatus int
		wantCode   string
	}{
		{name: "health", method: http.MethodGet, path: "/healthz", wantStatus: http.StatusOK},
		{name: "public event list", method: http.MethodGet, path: "/events", wantStatus: http.StatusOK},
		{name: "event by slug", method: http.MethodGet, path: "/events/go-meetup", wantStatus: http.StatusOK},
		{name: "stats requires auth", method: http.MethodGet, path: "/events/stats", wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "bad token on optional route", method: http.MethodGet, path: "/events", token: "nope", wantStatus: http.StatusUnauthorized, wantCode: helpers.ErrCodeUnauthorized},
		{name: "user list forbidden for users", method: http.MethodGet, path: "/users", token: "user", wantStatus: http.StatusForbidden, wantCode: helpers.ErrCodeForbidden},
		{name: "user list for admin", method: http.MethodGet, path: "/users", token: "admin", wantStatus: http.StatusOK},
		{name: "venue create forbidden for users", method: http.MethodPost, path: "/venues", token: "user", wantStatus: http.StatusForbidden, wantCode: helpers.ErrCodeForbidden},
		{name: "audit requires admin", method: http.MethodGet, path: "/audit-logs", token: "user", wantStatus: http.StatusForbidden, wantCode: helpers.ErrCodeForbidden},
		{name: "malformed show id", method: http.MethodGet, path: "/events/not-a-uuid/shows", wantStatus: http.StatusBadRequest, wantCode: helpers.ErrCodeBadRequest},
		{name: "method not allowed", method: http.MethodPut, path: "/events", wantStatus: http.StatusMethodNotAllowed},
		{name: "unknown route", method: http.MethodGet, path: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "http://test"+tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rr := httptest.NewRecorder()

			handler.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantCode != "" {
				var envelope helpers.APIResponse
				require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
				require.NotNil(t, envelope.Error)
				assert.Equal(t, tt.wantCode, envelope.Error.Code)
			}
		})
	}
}

func TestRouter_OptionalAuthPassesPrincipal(t *testing.T) {
	events := &stubEventService{}
	handler := newTestHandler(events)

	req := httptest.NewRequest(http.MethodGet, "http://test/events?owner_id=", nil)
	req.Header.Set("Authorization", "Bearer user")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, events.lastCaller)
	assert.Equal(t, "u1", events.lastCaller.UserID)
}

func TestRouter_CORSPreflight(t *testing.T) {
	handler := newTestHandler(&stubEventService{})
	req := httptest.NewRequest(http.MethodOptions, "http://test/events", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "https://app.example.com", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestRouter_SwaggerDocListsAnnotatedRoutes(t *testing.T) {
	handler := newTestHandler(&stubEventService{})
	req := httptest.NewRequest(http.MethodGet, "http://test/swagger/doc.json", nil)
	rr := httptest.NewRecorder()

	handler.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	var doc struct {
		Paths map[string]map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	for path, method := range map[string]string{
		"/auth/login":                       "post",
		"/events/{eventID}":                 "get",
		"/events/{eventID}/waitlist/notify": "post",
		"/categories/{categoryID}":          "get",
		"/users/me/consents/{type}":         "put",
		"/events/{eventID}/nearby-places":   "post",
		"/audit-logs":                       "get",
		"/invitations/accept":               "post",
	} {
		require.Contains(t, doc.Paths, path)
		assert.Contains(t, doc.Paths[path], method, path)
	}
}
