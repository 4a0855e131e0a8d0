package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/crypto-shop/internal/core/domain"
	"github.com/rl1809/crypto-shop/internal/port/mocks"
)

func TestDemandReader_InvalidID(t *testing.T) {
	r := NewDemandReader(mocks.NewDB(), time.Hour)
	_, err := r.Read(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestDemandReader_EmptyIsNeutral(t *testing.T) {
	r := NewDemandReader(mocks.NewDB(), time.Hour)
	d, err := r.Read(context.Background(), pid1)
	require.NoError(t, err)
	assert.Equal(t, domain.Demand{Sales: 0, Views: 0}, d)
}

func TestDemandReader_AggregatesWindow(t *testing.T) {
	db := mocks.NewDB()
	now := time.Now()

	// inside the window
	db.Orders = append(db.Orders, domain.Order{
		CreatedAt: now.Add(-10 * time.Minute),
		Items: []domain.OrderItem{
			{ProductID: pid1, Qty: 3},
			{ProductID: pid2, Qty: 7}, // other product, excluded
		},
	}, domain.Order{
		CreatedAt: now.Add(-30 * time.Minute),
		Items:     []domain.OrderItem{{ProductID: pid1, Qty: 2}},
	})
	// outside the window
	db.Orders = append(db.Orders, domain.Order{
		CreatedAt: now.Add(-2 * time.Hour),
		Items:     []domain.OrderItem{{ProductID: pid1, Qty: 50}},
	})

	db.Views = append(db.Views,
		domain.View{ProductID: pid1, CreatedAt: now.Add(-5 * time.Minute)},
		domain.View{ProductID: pid1, CreatedAt: now.Add(-59 * time.Minute)},
		domain.View{ProductID: pid1, CreatedAt: now.Add(-3 * time.Hour)}, // excluded
		domain.View{ProductID: pid2, CreatedAt: now.Add(-1 * time.Minute)},
	)

	r := NewDemandReader(db, time.Hour)
	d, err := r.Read(context.Background(), pid1)
	require.NoError(t, err)
	assert.Equal(t, domain.Demand{Sales: 5, Views: 2}, d)
}
