package server

import (
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePagination(t *testing.T) {
	app := fiber.New()
	var got Pagination
	app.Get("/", func(c *fiber.Ctx) error {
		got = parsePagination(c, 20)
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		name   string
		query  string
		limit  int
		offset int
	}{
		{"Defaults", "", 20, 0},
		{"Explicit", "?limit=5&offset=10", 5, 10},
		{"Capped At Max", "?limit=500", 100, 0},
		{"Negative Values", "?limit=-1&offset=-3", 20, 0},
		{"Garbage", "?limit=abc&offset=xyz", 20, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := http.NewRequest(http.MethodGet, "/"+tt.query, nil)
			require.NoError(t, err)
			_, err = app.Test(req, -1)
			require.NoError(t, err)
			assert.Equal(t, tt.limit, got.Limit)
			assert.Equal(t, tt.offset, got.Offset)
		})
	}
}

func TestHumanizeParam(t *testing.T) {
	assert.Equal(t, "ID", humanizeParam("id"))
	assert.Equal(t, "item ID", humanizeParam("itemId"))
	assert.Equal(t, "review item ID", humanizeParam("reviewItemId"))
	assert.Equal(t, "slug", humanizeParam("slug"))
}
