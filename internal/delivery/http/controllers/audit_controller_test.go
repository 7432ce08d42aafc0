package controllers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

func TestAuditController_List(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		fakeErr    error
		wantStatus int
	}{
		{"filters", "?user_id=" + testOtherID + "&entity_type=event&action=event.publish&since=2026-10-01T00:00:00Z", nil, http.StatusOK},
		{"upper case user id", "?user_id=" + strings.ToUpper(testOtherID), nil, http.StatusOK},
		{"bad user id", "?user_id=abc", nil, http.StatusBadRequest},
		{"bad since", "?since=yesterday", nil, http.StatusBadRequest},
		{"non admin", "", domain.ErrForbidden, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeAuditService{entries: []*domain.AuditLog{{ID: "a1", Action: domain.AuditEventPublish}}, total: 1, err: tt.fakeErr}
			ctrl := NewAuditController(testLogger(), fake)
			rr := httptest.NewRecorder()

			ctrl.List(rr, newRequest(http.MethodGet, "/audit-logs"+tt.query, nil, &testAdmin, nil))

			require.Equal(t, tt.wantStatus, rr.Code)
			if tt.name == "upper case user id" {
				assert.Equal(t, testOtherID, fake.lastFilter.UserID)
			}
			if tt.name == "filters" {
				assert.Equal(t, testOtherID, fake.lastFilter.UserID)
				assert.Equal(t, "event", fake.lastFilter.EntityType)
				assert.Equal(t, domain.AuditEventPublish, fake.lastFilter.Action)
				require.NotNil(t, fake.lastFilter.Since)
			}
		})
	}
}
