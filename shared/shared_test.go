package shared_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"reservo/shared"
	cacheMocks "reservo/shared/cache/mocks"
	"reservo/shared/constant"
	"reservo/shared/dto"
)

func TestCalculateTotalPage(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		limit    int
		expected int
	}{
		{name: "no rows", total: 0, limit: 10, expected: 1},
		{name: "no limit", total: 100, limit: 0, expected: 1},
		{name: "negative limit", total: 100, limit: -5, expected: 1},
		{name: "exact division", total: 100, limit: 10, expected: 10},
		{name: "remainder", total: 101, limit: 10, expected: 11},
		{name: "single row", total: 1, limit: 10, expected: 1},
		{name: "large", total: 1000000, limit: 7, expected: 142858},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, shared.CalculateTotalPage(tt.total, tt.limit))
		})
	}
}

func TestTransformFields(t *testing.T) {
	type tablePatch struct {
		Name     string  `db:"name"`
		Capacity int     `db:"capacity"`
		Notes    *string `db:"notes"`
		Floor    *int    `db:"floor"`
		Scratch  string  `db:"-"`
		Untagged string
	}

	empty := ""

	tests := []struct {
		name     string
		data     any
		expected map[string]any
	}{
		{
			name:     "set fields only",
			data:     tablePatch{Name: "T01", Scratch: "x", Untagged: "y"},
			expected: map[string]any{"name": "T01"},
		},
		{
			name:     "pointer to zero value is kept",
			data:     tablePatch{Capacity: 6, Notes: &empty},
			expected: map[string]any{"capacity": 6, "notes": &empty},
		},
		{
			name:     "nothing set",
			data:     tablePatch{},
			expected: map[string]any{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.TransformFields(tt.data, "staff-1")

			assert.Equal(t, "staff-1", result[constant.FieldModifiedBy])
			assert.IsType(t, time.Time{}, result[constant.FieldModifiedAt])

			delete(result, constant.FieldModifiedBy)
			delete(result, constant.FieldModifiedAt)

			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestFilterByID(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		table string
		where string
	}{
		{name: "qualified column", id: "12", table: "restaurant_tables", where: "(restaurant_tables.id = :id)"},
		{name: "bare column", id: "550e8400-e29b-41d4-a716-446655440000", where: "(id = :id)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := shared.FilterByID(tt.id, "id", tt.table)

			assert.Equal(t, dto.And(dto.Eq(tt.table, "id", tt.id)), result)

			where, args := result.GetWhereClause()
			assert.Equal(t, tt.where, where)
			assert.Equal(t, tt.id, args["id"])
		})
	}
}

func TestBuildCacheKey(t *testing.T) {
	assert.Equal(t, "table:get:12", shared.BuildCacheKey("table:get", "12"))
	assert.Equal(t, "limiter", shared.BuildCacheKey("limiter"))
}

func TestBuildCacheKeyWithQuery(t *testing.T) {
	params := dto.QueryParams{Page: 1, Limit: 10}
	filter := dto.And(
		dto.Eq("", "status", "CONFIRMED"),
		dto.Eq("", "booking_date", "2026-10-18"),
	)

	first := shared.BuildCacheKeyWithQuery("booking:gets", params, filter)

	assert.Equal(t, first, shared.BuildCacheKeyWithQuery("booking:gets", params, filter))
	assert.NotEqual(t, first, shared.BuildCacheKeyWithQuery("booking:gets", dto.QueryParams{Page: 2, Limit: 10}, filter))
	assert.NotEqual(t, first, shared.BuildCacheKeyWithQuery("booking:gets", params, dto.And(dto.Eq("", "status", "PENDING"))))
}

func TestInvalidateCaches(t *testing.T) {
	ctrl := gomock.NewController(t)
	redisCache := cacheMocks.NewMockRedisCache(ctrl)

	redisCache.EXPECT().Clear(gomock.Any(), "table:floors:*").Return(errors.New("redis down"))

	shared.InvalidateCaches(context.Background(), redisCache, "table:floors")
}
