package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

func newTestCache() (domain.EventCache, redismock.ClientMock) {
	client, mock := redismock.NewClientMock()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewEventCache(client, 5*time.Minute, logger), mock
}

func sampleEvent() *domain.Event {
	ts := time.Date(2025, 4, 1, 18, 0, 0, 0, time.UTC)
	return &domain.Event{
		ID:        "ev-1",
		OwnerID:   "user-1",
		Title:     "Go Conf",
		Slug:      "go-conf",
		StartsAt:  ts,
		Status:    domain.EventPublished,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
}

func TestEventCache_Get(t *testing.T) {
	ctx := context.Background()
	event := sampleEvent()
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	tests := []struct {
		name    string
		mock    func(mock redismock.ClientMock)
		want    *domain.Event
		errIs   error
		wantErr bool
	}{
		{
			name: "hit",
			mock: func(mock redismock.ClientMock) {
				mock.ExpectGet("eventhub:event:slug:go-conf").SetVal(string(payload))
			},
			want: event,
		},
		{
			name: "miss",
			mock: func(mock redismock.ClientMock) {
				mock.ExpectGet("eventhub:event:slug:go-conf").RedisNil()
			},
			errIs: domain.ErrCacheMiss,
		},
		{
			name: "corrupt payload is evicted",
			mock: func(mock redismock.ClientMock) {
				mock.ExpectGet("eventhub:event:slug:go-conf").SetVal("{not json")
				mock.ExpectDel("eventhub:event:slug:go-conf").SetVal(1)
			},
			errIs: domain.ErrCacheMiss,
		},
		{
			name: "redis error",
			mock: func(mock redismock.ClientMock) {
				mock.ExpectGet("eventhub:event:slug:go-conf").SetErr(errors.New("connection refused"))
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, mock := newTestCache()
			tt.mock(mock)

			got, err := c.Get(ctx, "go-conf")
			switch {
			case tt.errIs != nil:
				assert.ErrorIs(t, err, tt.errIs)
			case tt.wantErr:
				assert.Error(t, err)
				assert.NotErrorIs(t, err, domain.ErrCacheMiss)
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.want.ID, got.ID)
				assert.True(t, tt.want.StartsAt.Equal(got.StartsAt))
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestEventCache_SetAndDelete(t *testing.T) {
	ctx := context.Background()
	event := sampleEvent()
	payload, err := json.Marshal(event)
	require.NoError(t, err)

	c, mock := newTestCache()
	mock.ExpectSet("eventhub:event:slug:go-conf", payload, 5*time.Minute).SetVal("OK")
	mock.ExpectDel("eventhub:event:slug:go-conf").SetVal(1)

	require.NoError(t, c.Set(ctx, event))
	require.NoError(t, c.Delete(ctx, "go-conf"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNoopEventCache(t *testing.T) {
	c := NewNoopEventCache()
	_, err := c.Get(context.Background(), "x")
	assert.ErrorIs(t, err, domain.ErrCacheMiss)
	assert.NoError(t, c.Set(context.Background(), sampleEvent()))
	assert.NoError(t, c.Delete(context.Background(), "x"))
}
