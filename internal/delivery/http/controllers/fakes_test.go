package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"

	"github.com/stretchr/testify/require"
)

const (
	testEventID = "0b6f7f0e-5d7c-4f47-9d1f-3c2a6c0e8a11"
	testOtherID = "5f0c6a2e-2f5d-4d0e-8c61-0f4b7c1d9e22"
)

var (
	testUser  = domain.Principal{UserID: "9a1d2c3b-4e5f-4a6b-8c7d-0e1f2a3b4c5d", SessionID: "sess-1", Role: domain.RoleUser}
	testAdmin = domain.Principal{UserID: "1b2c3d4e-5f6a-4b7c-8d9e-0f1a2b3c4d5e", SessionID: "sess-2", Role: domain.RoleAdmin}
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
}

// newRequest builds a request with optional JSON body, path values and principal.
func newRequest(method, target string, body any, principal *domain.Principal, pathValues map[string]string) *http.Request {
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, "http://test"+target, rdr)
	for k, v := range pathValues {
		req.SetPathValue(k, v)
	}
	if principal != nil {
		req = req.WithContext(middleware.SetPrincipal(req.Context(), *principal))
	}
	return req
}

// decodeEnvelope decodes the response envelope, unmarshalling data into dest when non-nil.
func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, dest any) *helpers.APIError {
	t.Helper()
	var raw struct {
		Data  json.RawMessage   `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&raw))
	if dest != nil && raw.Error == nil {
		require.NoError(t, json.Unmarshal(raw.Data, dest))
	}
	return raw.Error
}

func errCode(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	apiErr := decodeEnvelope(t, rr, nil)
	require.NotNil(t, apiErr)
	return apiErr.Code
}

// fakeAuthService implements domain.AuthService for handler tests.
type fakeAuthService struct {
	domain.AuthService
	user        *domain.User
	login       *domain.LoginResult
	err         error
	lastSignUp  domain.SignUpInput
	lastLogout  string
	lastResend  string
	lastToken   string
	lastLoginIP string
}

func (f *fakeAuthService) SignUp(_ context.Context, in domain.SignUpInput) (*domain.User, error) {
	f.lastSignUp = in
	return f.user, f.err
}

func (f *fakeAuthService) Login(_ context.Context, _, _, _, ip string) (*domain.LoginResult, error) {
	f.lastLoginIP = ip
	return f.login, f.err
}

func (f *fakeAuthService) Logout(_ context.Context, sessionID string) error {
	f.lastLogout = sessionID
	return f.err
}

func (f *fakeAuthService) RequestEmailVerification(_ context.Context, userID string) error {
	f.lastResend = userID
	return f.err
}

func (f *fakeAuthService) VerifyEmail(_ context.Context, token string) (*domain.User, error) {
	f.lastToken = token
	return f.user, f.err
}

func (f *fakeAuthService) Verify(_ context.Context, token string) (domain.Principal, error) {
	switch token {
	case "user-token":
		return testUser, nil
	case "admin-token":
		return testAdmin, nil
	}
	return domain.Principal{}, domain.ErrUnauthorized
}

// fakeUserService implements domain.UserService for handler tests.
type fakeUserService struct {
	domain.UserService
	user       *domain.User
	users      []*domain.User
	sessions   []*domain.Session
	total      int
	err        error
	lastName   *string
	lastEmail  *string
	lastFilter domain.UserFilter
	revoked    string
}

func (f *fakeUserService) GetByID(_ context.Context, _ string) (*domain.User, error) {
	return f.user, f.err
}

func (f *fakeUserService) Update(_ context.Context, _ string, name, email *string) (*domain.User, error) {
	f.lastName, f.lastEmail = name, email
	return f.user, f.err
}

func (f *fakeUserService) ChangePassword(_ context.Context, _ domain.Principal, _, _ string) error {
	return f.err
}

func (f *fakeUserService) Delete(_ context.Context, _ string) error { return f.err }

func (f *fakeUserService) ListSessions(_ context.Context, _ string) ([]*domain.Session, error) {
	return f.sessions, f.err
}

func (f *fakeUserService) RevokeSession(_ context.Context, _, sessionID string) error {
	f.revoked = sessionID
	return f.err
}

func (f *fakeUserService) List(_ context.Context, _ domain.Principal, filter domain.UserFilter, _ domain.PaginationParams) ([]*domain.User, int, error) {
	f.lastFilter = filter
	return f.users, f.total, f.err
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	domain.EventService
	event      *domain.Event
	events     []*domain.Event
	total      int
	stats      *domain.EventStats
	err        error
	lastCaller *domain.Principal
	lastInput  domain.CreateEventInput
	lastFilter domain.EventFilter
	lastParams domain.PaginationParams
	lastUpdate domain.EventUpdate
	lastID     string
	lastSlug   string
}

func (f *fakeEventService) Create(_ context.Context, caller domain.Principal, in domain.CreateEventInput) (*domain.Event, error) {
	f.lastCaller, f.lastInput = &caller, in
	return f.event, f.err
}

func (f *fakeEventService) Get(_ context.Context, caller *domain.Principal, id string) (*domain.Event, error) {
	f.lastCaller, f.lastID = caller, id
	return f.event, f.err
}

func (f *fakeEventService) GetBySlug(_ context.Context, caller *domain.Principal, slug string) (*domain.Event, error) {
	f.lastCaller, f.lastSlug = caller, slug
	return f.event, f.err
}

func (f *fakeEventService) List(_ context.Context, caller *domain.Principal, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.lastCaller, f.lastFilter, f.lastParams = caller, filter, params
	return f.events, f.total, f.err
}

func (f *fakeEventService) Update(_ context.Context, _ domain.Principal, id string, upd domain.EventUpdate) (*domain.Event, error) {
	f.lastID, f.lastUpdate = id, upd
	return f.event, f.err
}

func (f *fakeEventService) Publish(_ context.Context, _ domain.Principal, id string) (*domain.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeEventService) Cancel(_ context.Context, _ domain.Principal, id string) (*domain.Event, error) {
	f.lastID = id
	return f.event, f.err
}

func (f *fakeEventService) Delete(_ context.Context, _ domain.Principal, id string) error {
	f.lastID = id
	return f.err
}

func (f *fakeEventService) Stats(_ context.Context, _ domain.Principal) (*domain.EventStats, error) {
	return f.stats, f.err
}

// fakeShowService implements domain.ShowService for handler tests.
type fakeShowService struct {
	domain.ShowService
	shows      []*domain.Show
	show       *domain.Show
	summary    *domain.PriceSummary
	err        error
	lastShow   *domain.Show
	lastUpdate domain.ShowUpdate
}

func (f *fakeShowService) Create(_ context.Context, _ domain.Principal, s *domain.Show) error {
	f.lastShow = s
	if f.err == nil {
		s.ID = testOtherID
	}
	return f.err
}

func (f *fakeShowService) List(_ context.Context, _ *domain.Principal, _ string) ([]*domain.Show, error) {
	return f.shows, f.err
}

func (f *fakeShowService) Update(_ context.Context, _ domain.Principal, _, _ string, upd domain.ShowUpdate) (*domain.Show, error) {
	f.lastUpdate = upd
	return f.show, f.err
}

func (f *fakeShowService) Delete(_ context.Context, _ domain.Principal, _, _ string) error {
	return f.err
}

func (f *fakeShowService) PriceSummary(_ context.Context, _ *domain.Principal, _ string) (*domain.PriceSummary, error) {
	return f.summary, f.err
}

// fakeNearbyPlaceService implements domain.NearbyPlaceService for handler tests.
type fakeNearbyPlaceService struct {
	domain.NearbyPlaceService
	places     []*domain.NearbyPlace
	place      *domain.NearbyPlace
	err        error
	lastPlace  *domain.NearbyPlace
	lastKind   domain.PlaceKind
	lastUpdate domain.NearbyPlaceUpdate
}

func (f *fakeNearbyPlaceService) Create(_ context.Context, _ domain.Principal, p *domain.NearbyPlace) error {
	f.lastPlace = p
	return f.err
}

func (f *fakeNearbyPlaceService) List(_ context.Context, _ *domain.Principal, _ string, kind domain.PlaceKind) ([]*domain.NearbyPlace, error) {
	f.lastKind = kind
	return f.places, f.err
}

func (f *fakeNearbyPlaceService) Update(_ context.Context, _ domain.Principal, _, _ string, upd domain.NearbyPlaceUpdate) (*domain.NearbyPlace, error) {
	f.lastUpdate = upd
	return f.place, f.err
}

func (f *fakeNearbyPlaceService) Delete(_ context.Context, _ domain.Principal, _, _ string) error {
	return f.err
}

// fakeWaitlistService implements domain.WaitlistService for handler tests.
type fakeWaitlistService struct {
	domain.WaitlistService
	entry      *domain.WaitlistEntry
	entries    []*domain.WaitlistEntry
	mine       []*domain.WaitlistEntryWithEvent
	notify     *domain.NotifyResult
	total      int
	err        error
	lastCaller *domain.Principal
	lastEmail  string
	lastStatus domain.WaitlistStatus
	lastN      int
}

func (f *fakeWaitlistService) Join(_ context.Context, caller *domain.Principal, _, email, _ string) (*domain.WaitlistEntry, error) {
	f.lastCaller, f.lastEmail = caller, email
	return f.entry, f.err
}

func (f *fakeWaitlistService) Leave(_ context.Context, _ domain.Principal, _, _ string) error {
	return f.err
}

func (f *fakeWaitlistService) List(_ context.Context, _ domain.Principal, _ string, status domain.WaitlistStatus, _ domain.PaginationParams) ([]*domain.WaitlistEntry, int, error) {
	f.lastStatus = status
	return f.entries, f.total, f.err
}

func (f *fakeWaitlistService) ListMine(_ context.Context, _ string) ([]*domain.WaitlistEntryWithEvent, error) {
	return f.mine, f.err
}

func (f *fakeWaitlistService) NotifyNext(_ context.Context, _ domain.Principal, _ string, n int) (*domain.NotifyResult, error) {
	f.lastN = n
	return f.notify, f.err
}

func (f *fakeWaitlistService) Convert(_ context.Context, _ domain.Principal, _, _ string) (*domain.WaitlistEntry, error) {
	return f.entry, f.err
}

// fakeVenueService implements domain.VenueService for handler tests.
type fakeVenueService struct {
	domain.VenueService
	venue      *domain.Venue
	venues     []*domain.Venue
	total      int
	err        error
	lastVenue  *domain.Venue
	lastFilter domain.VenueFilter
}

func (f *fakeVenueService) Create(_ context.Context, _ domain.Principal, v *domain.Venue) error {
	f.lastVenue = v
	return f.err
}

func (f *fakeVenueService) Get(_ context.Context, _ string) (*domain.Venue, error) {
	return f.venue, f.err
}

func (f *fakeVenueService) List(_ context.Context, filter domain.VenueFilter, _ domain.PaginationParams) ([]*domain.Venue, int, error) {
	f.lastFilter = filter
	return f.venues, f.total, f.err
}

func (f *fakeVenueService) Update(_ context.Context, _ domain.Principal, _ string, _ domain.VenueUpdate) (*domain.Venue, error) {
	return f.venue, f.err
}

func (f *fakeVenueService) Delete(_ context.Context, _ domain.Principal, _ string) error {
	return f.err
}

// fakeCategoryService implements domain.CategoryService for handler tests.
type fakeCategoryService struct {
	domain.CategoryService
	category   *domain.Category
	categories []*domain.Category
	total      int
	err        error
	lastRef    string
}

func (f *fakeCategoryService) Create(_ context.Context, _ domain.Principal, _ *domain.Category) error {
	return f.err
}

func (f *fakeCategoryService) Get(_ context.Context, idOrSlug string) (*domain.Category, error) {
	f.lastRef = idOrSlug
	return f.category, f.err
}

func (f *fakeCategoryService) List(_ context.Context, _ string, _ domain.PaginationParams) ([]*domain.Category, int, error) {
	return f.categories, f.total, f.err
}

func (f *fakeCategoryService) Update(_ context.Context, _ domain.Principal, _ string, _ domain.CategoryUpdate) (*domain.Category, error) {
	return f.category, f.err
}

func (f *fakeCategoryService) Delete(_ context.Context, _ domain.Principal, _ string) error {
	return f.err
}

// fakeInvitationService implements domain.InvitationService for handler tests.
type fakeInvitationService struct {
	domain.InvitationService
	invitation  *domain.Invitation
	invitations []*domain.Invitation
	total       int
	err         error
	lastEmail   string
	lastRole    domain.UserRole
	lastToken   string
}

func (f *fakeInvitationService) Create(_ context.Context, _ domain.Principal, email, _ string, role domain.UserRole) (*domain.Invitation, error) {
	f.lastEmail, f.lastRole = email, role
	return f.invitation, f.err
}

func (f *fakeInvitationService) Accept(_ context.Context, _ domain.Principal, token string) (*domain.Invitation, error) {
	f.lastToken = token
	return f.invitation, f.err
}

func (f *fakeInvitationService) Revoke(_ context.Context, _ domain.Principal, _ string) error {
	return f.err
}

func (f *fakeInvitationService) ListSent(_ context.Context, _ domain.Principal, _ domain.PaginationParams) ([]*domain.Invitation, int, error) {
	return f.invitations, f.total, f.err
}

func (f *fakeInvitationService) ListReceived(_ context.Context, _ domain.Principal, _ domain.PaginationParams) ([]*domain.Invitation, int, error) {
	return f.invitations, f.total, f.err
}

// fakeConsentService implements domain.ConsentService for handler tests.
type fakeConsentService struct {
	domain.ConsentService
	consent     *domain.Consent
	consents    []*domain.Consent
	err         error
	lastType    domain.ConsentType
	lastGranted bool
}

func (f *fakeConsentService) Set(_ context.Context, _ string, t domain.ConsentType, granted bool, _, _ string) (*domain.Consent, error) {
	f.lastType, f.lastGranted = t, granted
	return f.consent, f.err
}

func (f *fakeConsentService) List(_ context.Context, _ string) ([]*domain.Consent, error) {
	return f.consents, f.err
}

// fakeAuditService implements domain.AuditService for handler tests.
type fakeAuditService struct {
	domain.AuditService
	entries    []*domain.AuditLog
	total      int
	err        error
	lastFilter domain.AuditFilter
}

func (f *fakeAuditService) List(_ context.Context, _ domain.Principal, filter domain.AuditFilter, _ domain.PaginationParams) ([]*domain.AuditLog, int, error) {
	f.lastFilter = filter
	return f.entries, f.total, f.err
}
