package services

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventhub/internal/domain"
)

func TestShowService(t *testing.T) {
	ctx := context.Background()
	events := newFakeEventRepo()
	shows := newFakeShowRepo()
	svc := NewShowService(shows, events, discardLogger(), testTimeout)

	start := time.Date(2030, 6, 1, 20, 0, 0, 0, time.UTC)
	e := events.add(&domain.Event{OwnerID: owner.UserID, Slug: "fest", StartsAt: start, Status: domain.EventPublished})

	s := &domain.Show{EventID: e.ID, Title: "Opening", StartsAt: start, Price: decimal.RequireFromString("12.345"), Currency: "eur", SeatsTotal: 100}
	require.NoError(t, svc.Create(ctx, owner, s))
	assert.Equal(t, "12.35", s.Price.StringFixed(2))
	assert.Equal(t, "EUR", s.Currency)

	free := &domain.Show{EventID: e.ID, Title: "Late", StartsAt: start.Add(2 * time.Hour), SeatsTotal: 50}
	require.NoError(t, svc.Create(ctx, admin, free))
	assert.Equal(t, defaultCurrency, free.Currency)

	early := start.Add(-time.Minute)
	tests := []struct {
		name string
		show domain.Show
		want error
	}{
		{"stranger", domain.Show{EventID: e.ID, Title: "X", StartsAt: start}, domain.ErrForbidden},
		{"before event start", domain.Show{EventID: e.ID, Title: "X", StartsAt: early}, domain.ErrInvalidInput},
		{"ends before start", domain.Show{EventID: e.ID, Title: "X", StartsAt: start, EndsAt: &early}, domain.ErrInvalidInput},
		{"negative price", domain.Show{EventID: e.ID, Title: "X", StartsAt: start, Price: decimal.NewFromInt(-1)}, domain.ErrInvalidInput},
		{"bad currency", domain.Show{EventID: e.ID, Title: "X", StartsAt: start, Currency: "EURO"}, domain.ErrInvalidInput},
		{"missing title", domain.Show{EventID: e.ID, StartsAt: start}, domain.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			caller := owner
			if tt.want == domain.ErrForbidden {
				caller = stranger
			}
			show := tt.show
			assert.ErrorIs(t, svc.Create(ctx, caller, &show), tt.want)
		})
	}

	t.Run("list is public for published events", func(t *testing.T) {
		list, err := svc.List(ctx, nil, e.ID)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Opening", list[0].Title)
	})

	t.Run("summary", func(t *testing.T) {
		sum, err := svc.PriceSummary(ctx, nil, e.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, sum.Count)
		assert.Equal(t, 150, sum.Seats)
		assert.True(t, sum.Max.Equal(decimal.RequireFromString("12.35")))
		assert.True(t, sum.Min.IsZero())
	})

	t.Run("update checks ownership of the show", func(t *testing.T) {
		other := events.add(&domain.Event{OwnerID: owner.UserID, Slug: "other", StartsAt: start})
		_, err := svc.Update(ctx, owner, other.ID, s.ID, domain.ShowUpdate{Title: ptr("Moved")})
		assert.ErrorIs(t, err, domain.ErrNotFound)

		got, err := svc.Update(ctx, owner, e.ID, s.ID, domain.ShowUpdate{Price: ptr(decimal.RequireFromString("9.999")), Currency: ptr("gbp")})
		require.NoError(t, err)
		assert.Equal(t, "10.00", got.Price.StringFixed(2))
		assert.Equal(t, "GBP", got.Currency)

		_, err = svc.Update(ctx, owner, e.ID, s.ID, domain.ShowUpdate{StartsAt: &early})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, svc.Delete(ctx, owner, e.ID, free.ID))
		assert.ErrorIs(t, svc.Delete(ctx, owner, e.ID, free.ID), domain.ErrNotFound)
	})
}
