package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeriveStatistics(t *testing.T) {
	products := []*Product{
		{ID: "1", Name: "Widget", Price: decimal.RequireFromString("9.99"), SoldQuantity: 3},
		{ID: "2", Name: "Unsold", Price: decimal.NewFromInt(100), SoldQuantity: 0},
		{ID: "3", Name: "Gizmo", Price: decimal.RequireFromString("0.10"), SoldQuantity: 7},
		{ID: "4", Name: "Bolt", Price: decimal.Zero, SoldQuantity: 2},
	}

	stats := DeriveStatistics(products)
	require.Len(t, stats, 3)

	assert.Equal(t, "Widget", stats[0].Name)
	assert.Equal(t, 3, stats[0].UnitsSold)
	assert.True(t, stats[0].Revenue.Equal(decimal.RequireFromString("29.97")), "got %s", stats[0].Revenue)

	assert.Equal(t, "Gizmo", stats[1].Name)
	assert.True(t, stats[1].Revenue.Equal(decimal.RequireFromString("0.7")), "got %s", stats[1].Revenue)

	assert.Equal(t, "4", stats[2].ProductID)
	assert.True(t, stats[2].Revenue.IsZero())
}

func TestDeriveStatisticsEmpty(t *testing.T) {
	assert.Empty(t, DeriveStatistics(nil))
	assert.Empty(t, DeriveStatistics([]*Product{{Name: "x"}}))
	assert.NotNil(t, DeriveStatistics(nil))
}
