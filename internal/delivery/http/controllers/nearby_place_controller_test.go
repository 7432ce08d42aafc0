package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

func TestNearbyPlaceController(t *testing.T) {
	fake := &fakeNearbyPlaceService{place: &domain.NearbyPlace{ID: testOtherID}}
	ctrl := NewNearbyPlaceController(testLogger(), fake)
	pv := map[string]string{"eventID": testEventID, "placeID": testOtherID}

	rr := httptest.NewRecorder()
	ctrl.Create(rr, newRequest(http.MethodPost, "/events/x/nearby-places", map[string]any{"name": "Cafe Uno", "kind": "cafe", "latitude": 52.52, "longitude": 13.40}, &testUser, pv))
	require.Equal(t, http.StatusCreated, rr.Code)
	require.NotNil(t, fake.lastPlace)
	assert.Equal(t, domain.PlaceCafe, fake.lastPlace.Kind)
	assert.Nil(t, fake.lastPlace.DistanceMeters)

	rr = httptest.NewRecorder()
	ctrl.Create(rr, newRequest(http.MethodPost, "/events/x/nearby-places", map[string]any{"name": "Half", "latitude": 52.52}, &testUser, pv))
	assert.Equal(t, http.StatusBadRequest, rr.Code, "latitude without longitude")

	rr = httptest.NewRecorder()
	ctrl.Create(rr, newRequest(http.MethodPost, "/events/x/nearby-places", map[string]any{"name": "Zoo", "kind": "zoo"}, &testUser, pv))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	ctrl.List(rr, newRequest(http.MethodGet, "/events/x/nearby-places?kind=BAR", nil, nil, pv))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, domain.PlaceBar, fake.lastKind)

	rr = httptest.NewRecorder()
	ctrl.List(rr, newRequest(http.MethodGet, "/events/x/nearby-places?kind=zoo", nil, nil, pv))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	ctrl.Update(rr, newRequest(http.MethodPatch, "/events/x/nearby-places/y", map[string]any{"kind": "hotel"}, &testUser, pv))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NotNil(t, fake.lastUpdate.Kind)
	assert.Equal(t, domain.PlaceHotel, *fake.lastUpdate.Kind)

	rr = httptest.NewRecorder()
	ctrl.Delete(rr, newRequest(http.MethodDelete, "/events/x/nearby-places/y", nil, &testUser, pv))
	assert.Equal(t, http.StatusOK, rr.Code)
}
