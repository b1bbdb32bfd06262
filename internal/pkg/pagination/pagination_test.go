package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestNewParamsClamps(t *testing.T) {
	tests := []struct {
		page, limit         int
		wantPage, wantLimit int
		wantOffset          int
	}{
		{0, 0, 1, DefaultLimit, 0},
		{3, 10, 3, 10, 20},
		{2, 1000, 2, MaxLimit, MaxLimit},
		{-4, -1, 1, DefaultLimit, 0},
	}
	for _, tt := range tests {
		p := NewParams(tt.page, tt.limit)
		if p.Page != tt.wantPage || p.Limit != tt.wantLimit || p.Offset != tt.wantOffset {
			t.Fatalf("NewParams(%d, %d) = %+v", tt.page, tt.limit, p)
		}
	}
}

func TestGetMeta(t *testing.T) {
	meta := GetMeta(NewParams(2, 10), 25)
	if meta.TotalPages != 3 || !meta.HasNext || !meta.HasPrev {
		t.Fatalf("unexpected meta %+v", meta)
	}
	meta = GetMeta(NewParams(1, 10), 0)
	if meta.TotalPages != 0 || meta.HasNext || meta.HasPrev {
		t.Fatalf("unexpected empty meta %+v", meta)
	}
}

func TestGetParamsFromQuery(t *testing.T) {
	app := fiber.New()
	var got *Params
	app.Get("/", func(c *fiber.Ctx) error {
		got = GetParams(c)
		return nil
	})
	if _, err := app.Test(httptest.NewRequest("GET", "/?page=2&limit=5", nil)); err != nil {
		t.Fatalf("request: %v", err)
	}
	if got.Page != 2 || got.Limit != 5 || got.Offset != 5 {
		t.Fatalf("unexpected params %+v", got)
	}
}
