package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitlistController_Join(t *testing.T) {
	tests := []struct {
		name         string
		principal    *domain.Principal
		body         any
		fakeErr      error
		wantStatus   int
		wantBodyCode string
	}{
		{name: "anonymous with email", body: map[string]string{"email": "guest@example.com", "name": "Guest"}, wantStatus: http.StatusCreated},
		{name: "logged in without email", principal: &testUser, body: map[string]string{}, wantStatus: http.StatusCreated},
		{name: "anonymous without email", body: map[string]string{"name": "Guest"}, wantStatus: http.StatusBadRequest, wantBodyCode: helpers.ErrCodeBadRequest},
		{name: "bad email", body: map[string]string{"email": "nope"}, wantStatus: http.StatusBadRequest, wantBodyCode: helpers.ErrCodeBadRequest},
		{name: "duplicate", body: map[string]string{"email": "guest@example.com"}, fakeErr: domain.ErrAlreadyOnWaitlist, wantStatus: http.StatusConflict, wantBodyCode: helpers.ErrCodeConflict},
		{name: "waitlist disabled", body: map[string]string{"email": "guest@example.com"}, fakeErr: domain.Invalid("waitlist is not enabled"), wantStatus: http.StatusBadRequest, wantBodyCode: helpers.ErrCodeBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeWaitlistService{entry: &domain.WaitlistEntry{ID: testOtherID, Position: 4, Status: domain.WaitlistWaiting}, err: tt.fakeErr}
			ctrl := NewWaitlistController(testLogger(), fake)
			rr := httptest.NewRecorder()

			ctrl.Join(rr, newRequest(http.MethodPost, "/events/x/waitlist", tt.body, tt.principal, map[string]string{"eventID": testEventID}))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.wantBodyCode != "" {
				apiErr := decodeEnvelope(t, rr, nil)
				require.NotNil(t, apiErr)
				assert.Equal(t, tt.wantBodyCode, apiErr.Code)
				return
			}
			var entry domain.WaitlistEntry
			require.Nil(t, decodeEnvelope(t, rr, &entry))
			assert.Equal(t, 4, entry.Position)
			assert.Equal(t, tt.principal, fake.lastCaller)
		})
	}
}

func TestWaitlistController_Manage(t *testing.T) {
	fake := &fakeWaitlistService{
		entries: []*domain.WaitlistEntry{{ID: testOtherID}},
		total:   1,
		notify:  &domain.NotifyResult{Notified: []*domain.WaitlistEntry{{ID: testOtherID}}, Failed: []string{}},
		entry:   &domain.WaitlistEntry{ID: testOtherID, Status: domain.WaitlistConverted},
	}
	ctrl := NewWaitlistController(testLogger(), fake)
	pv := map[string]string{"eventID": testEventID, "entryID": testOtherID}

	rr := httptest.NewRecorder()
	ctrl.List(rr, newRequest(http.MethodGet, "/events/x/waitlist?status=WAITING", nil, &testUser, pv))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.WaitlistWaiting, fake.lastStatus)

	rr = httptest.NewRecorder()
	ctrl.Notify(rr, newRequest(http.MethodPost, "/events/x/waitlist/notify", map[string]int{"count": 3}, &testUser, pv))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 3, fake.lastN)
	var res domain.NotifyResult
	require.Nil(t, decodeEnvelope(t, rr, &res))
	assert.Len(t, res.Notified, 1)

	rr = httptest.NewRecorder()
	ctrl.Notify(rr, newRequest(http.MethodPost, "/events/x/waitlist/notify", map[string]int{"count": -1}, &testUser, pv))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	ctrl.Convert(rr, newRequest(http.MethodPost, "/events/x/waitlist/y/convert", nil, &testUser, pv))
	require.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	ctrl.Leave(rr, newRequest(http.MethodDelete, "/events/x/waitlist/y", nil, &testUser, map[string]string{"eventID": testEventID, "entryID": "bad"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	fake.err = domain.ErrForbidden
	rr = httptest.NewRecorder()
	ctrl.Leave(rr, newRequest(http.MethodDelete, "/events/x/waitlist/y", nil, &testUser, pv))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}

func TestWaitlistController_ListMine(t *testing.T) {
	fake := &fakeWaitlistService{mine: []*domain.WaitlistEntryWithEvent{{Entry: &domain.WaitlistEntry{ID: testOtherID}, Event: &domain.Event{ID: testEventID}}}}
	ctrl := NewWaitlistController(testLogger(), fake)
	rr := httptest.NewRecorder()

	ctrl.ListMine(rr, newRequest(http.MethodGet, "/users/me/waitlist", nil, &testUser, nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var mine []domain.WaitlistEntryWithEvent
	require.Nil(t, decodeEnvelope(t, rr, &mine))
	require.Len(t, mine, 1)
	assert.Equal(t, testEventID, mine[0].Event.ID)
}
