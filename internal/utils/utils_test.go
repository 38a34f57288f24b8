package utils

import (
	"testing"

	"github.com/printhub/printhub-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		want  int64
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{99, 100, 1},
		{101, 100, 2},
		{5, 1, 5},
		{7, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.total, tt.limit), "total=%d limit=%d", tt.total, tt.limit)
	}
}

func TestTotalPagesIsCeiling(t *testing.T) {
	for total := int64(0); total <= 250; total++ {
		for limit := 1; limit <= 25; limit++ {
			got := TotalPages(total, limit)
			assert.GreaterOrEqual(t, got*int64(limit), total)
			if total > 0 {
				assert.Less(t, (got-1)*int64(limit), total)
			}
		}
	}
}

func TestParsePagination(t *testing.T) {
	page, limit := ParsePagination("", "")
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)

	page, limit = ParsePagination("3", "25")
	assert.Equal(t, 3, page)
	assert.Equal(t, 25, limit)

	page, limit = ParsePagination("-2", "1000")
	assert.Equal(t, 1, page)
	assert.Equal(t, 100, limit)

	page, limit = ParsePagination("abc", "0")
	assert.Equal(t, 1, page)
	assert.Equal(t, 10, limit)
}

func TestGenerateNumericCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateNumericCode(6)
		require.NoError(t, err)
		require.Len(t, code, 6)
		for _, r := range code {
			require.True(t, r >= '0' && r <= '9')
		}
	}

	_, err := GenerateNumericCode(0)
	assert.Error(t, err)
}

func TestComputeTotals(t *testing.T) {
	items := []models.OrderItem{
		{Price: 199.99, Quantity: 3},
		{Price: 0.1, Quantity: 7},
	}
	got := ComputeTotals(items, 0.18)
	assert.Equal(t, 600.67, got.Subtotal)
	assert.Equal(t, 108.12, got.Tax)
	assert.Equal(t, 708.79, got.Total)
}

func TestComputeTotalsZeroTax(t *testing.T) {
	got := ComputeTotals([]models.OrderItem{{Price: 10, Quantity: 2}}, 0)
	assert.Equal(t, 20.0, got.Subtotal)
	assert.Equal(t, 0.0, got.Tax)
	assert.Equal(t, 20.0, got.Total)
}

func TestToMinorUnits(t *testing.T) {
	assert.Equal(t, int64(70879), ToMinorUnits(708.79))
	assert.Equal(t, int64(499900), ToMinorUnits(4999))
	assert.Equal(t, int64(1), ToMinorUnits(0.005))
}
