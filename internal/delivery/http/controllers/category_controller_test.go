package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

func TestCategoryController(t *testing.T) {
	fake := &fakeCategoryService{category: &domain.Category{ID: testOtherID, Slug: "music"}, categories: []*domain.Category{{ID: testOtherID}}, total: 1}
	ctrl := NewCategoryController(testLogger(), fake)

	rr := httptest.NewRecorder()
	ctrl.Get(rr, newRequest(http.MethodGet, "/categories/Music", nil, nil, map[string]string{"categoryID": "Music"}))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "music", fake.lastRef)

	rr = httptest.NewRecorder()
	ctrl.List(rr, newRequest(http.MethodGet, "/categories", nil, nil, nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	ctrl.Create(rr, newRequest(http.MethodPost, "/categories", map[string]string{"name": " "}, &testAdmin, nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = httptest.NewRecorder()
	ctrl.Create(rr, newRequest(http.MethodPost, "/categories", map[string]string{"name": "Music"}, &testAdmin, nil))
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = httptest.NewRecorder()
	ctrl.Update(rr, newRequest(http.MethodPatch, "/categories/x", map[string]string{"slug": "tunes"}, &testAdmin, map[string]string{"categoryID": "music"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code, "updates address categories by id")

	fake.err = domain.ErrNotFound
	rr = httptest.NewRecorder()
	ctrl.Get(rr, newRequest(http.MethodGet, "/categories/nope", nil, nil, map[string]string{"categoryID": "nope"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	fake.err = domain.ErrForbidden
	rr = httptest.NewRecorder()
	ctrl.Delete(rr, newRequest(http.MethodDelete, "/categories/x", nil, &testUser, map[string]string{"categoryID": testOtherID}))
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
