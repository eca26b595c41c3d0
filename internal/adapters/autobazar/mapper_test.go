package autobazar

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Thebloodraccoon/car-parser/internal/adapters/httpclient"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

func testAdapter(t *testing.T, baseURL string) *AutoBazarAdapter {
	t.Helper()
	client, err := httpclient.NewClient(httpclient.Config{
		Policy: httpclient.RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return NewAutoBazarAdapter(client, baseURL)
}

func TestParsePostsPayload(t *testing.T) {
	payload := `{"results":[
		{
			"make_title":"Toyota",
			"model":{"title":"Corolla"},
			"year":2019,
			"price":{"uah":550000},
			"mileage":80000,
			"capacity":1.8,
			"engine":{"title":"Бензин"},
			"gearbox":{"title":"Механіка"},
			"location":{"title":"Одеса"},
			"photos":[{"image":"https://cdn.avtobazar.ua/corolla.jpg"}],
			"permalink":"https://avtobazar.ua/posts/corolla-1"
		},
		{
			"make":{"title":"BMW"},
			"model":{"title":"320"},
			"price":{"usd":10000},
			"permalink":"https://avtobazar.ua/posts/bmw-2"
		},
		"definitely-not-an-object",
		{
			"year":2015
		}
	]}`

	adapter := testAdapter(t, "https://avtobazar.ua")
	brand := domain.BrandTarget{ID: "17", Title: "Toyota"}

	items := adapter.Parse(context.Background(), domain.RawPayload(payload), brand)

	// Строка вместо объекта отбрасывается, остальные записи выживают
	if len(items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(items))
	}

	first := items[0]
	checks := map[string]interface{}{
		"make":            "Toyota",
		"model":           "Corolla",
		"year":            2019,
		"price":           550000.0,
		"mileage":         80000,
		"engine_capacity": "1.8",
		"engine_type":     "Бензин",
		"transmission":    "Механіка",
		"location":        "Одеса",
		"image_url":       "https://cdn.avtobazar.ua/corolla.jpg",
		"source_url":      "https://avtobazar.ua/posts/corolla-1",
		"source_site":     SiteName,
	}
	for key, want := range checks {
		if got := first[key]; got != want {
			t.Errorf("first[%q] = %v (%T), want %v (%T)", key, got, got, want, want)
		}
	}

	second := items[1]
	// Цена только в долларах пересчитывается в гривну
	if got := second["price"]; got != 10000*usdToUAHRate {
		t.Errorf("second[price] = %v, want %v", got, 10000*usdToUAHRate)
	}
	if got := second["make"]; got != "BMW" {
		t.Errorf("second[make] = %v, want BMW from nested object", got)
	}
	if _, ok := second["year"]; ok {
		t.Error("second item must not contain year key")
	}

	third := items[2]
	// Марка отсутствует в записи: наследуется от целевого бренда
	if got := third["make"]; got != "Toyota" {
		t.Errorf("third[make] = %v, want brand title fallback", got)
	}
}

func TestListBrandsFiltersPreferred(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/transports/makes/" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"id":17,"title":"Toyota"},
			{"id":3,"title":"BMW"},
			{"id":44,"title":"Land Rover"}
		]`))
	}))
	defer server.Close()

	adapter := testAdapter(t, server.URL)

	brands, err := adapter.ListBrands(context.Background(), []string{"toyota", "Land Rover"})
	if err != nil {
		t.Fatalf("ListBrands returned error: %v", err)
	}
	if len(brands) != 2 {
		t.Fatalf("expected 2 brands, got %d: %+v", len(brands), brands)
	}
	if brands[0].ID != "17" || brands[0].Title != "Toyota" {
		t.Errorf("unexpected first brand: %+v", brands[0])
	}
	if brands[1].ID != "44" || brands[1].Title != "Land Rover" {
		t.Errorf("unexpected second brand: %+v", brands[1])
	}
}

func TestFetchContentEmptyResultsMeansAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("make"); got != "17" {
			t.Errorf("expected make=17, got %q", got)
		}
		if got := r.URL.Query().Get("transport"); got != "1" {
			t.Errorf("expected transport=1, got %q", got)
		}
		_, _ = w.Write([]byte(`{"results":[]}`))
	}))
	defer server.Close()

	adapter := testAdapter(t, server.URL)

	payload, err := adapter.FetchContent(context.Background(), domain.BrandTarget{ID: "17"}, 0)
	if err != nil {
		t.Fatalf("FetchContent returned error: %v", err)
	}
	if payload != nil {
		t.Errorf("expected nil payload for empty results, got %q", payload)
	}
}

func TestFetchContentReturnsPayload(t *testing.T) {
	body := `{"results":[{"year":2020,"permalink":"https://avtobazar.ua/posts/1"}]}`
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(body))
	}))
	defer server.Close()

	adapter := testAdapter(t, server.URL)

	payload, err := adapter.FetchContent(context.Background(), domain.BrandTarget{ID: "17"}, 0)
	if err != nil {
		t.Fatalf("FetchContent returned error: %v", err)
	}
	if string(payload) != body {
		t.Errorf("expected raw body back, got %q", payload)
	}
}

func TestFetchContentRejectedRequestMeansAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	adapter := testAdapter(t, server.URL)

	payload, err := adapter.FetchContent(context.Background(), domain.BrandTarget{ID: "9999"}, 1)
	if err != nil {
		t.Fatalf("FetchContent returned error: %v", err)
	}
	if payload != nil {
		t.Errorf("expected nil payload for rejected request, got %q", payload)
	}
}
