package autoria

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Thebloodraccoon/car-parser/internal/adapters/httpclient"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

const listingPage = `
<html><body>
<section class="ticket-item">
  <div class="hide" data-advertisement-data
       data-mark-name="Toyota" data-model-name="Camry" data-year="2018"
       data-link-to-view="/uk/auto_toyota_camry_123.html"></div>
  <div class="price-ticket">
    <span data-currency="UAH">850 000 грн</span>
  </div>
  <ul class="unstyle characteristic">
    <li class="item-char js-race"><i class="icon-mileage"></i>120 тис. км</li>
    <li class="item-char view-location"><i class="icon-location"></i>Київ</li>
    <li class="item-char"><i class="icon-fuel"></i>Бензин, 2.5 л.</li>
    <li class="item-char"><i class="icon-transmission"></i>Автомат</li>
  </ul>
  <div class="ticket-photo">
    <img src="//cdn.riastatic.com/photos/auto/camry.jpg"/>
  </div>
</section>
<section class="ticket-item">
  <div class="hide" data-advertisement-data
       data-model-name="X5" data-year="not-a-year"
       data-link-to-view="https://auto.ria.com/uk/auto_bmw_x5_456.html"></div>
  <ul class="unstyle characteristic">
    <li class="item-char view-location"><i class="icon-location"></i>Львів</li>
  </ul>
</section>
<section class="ticket-item">
  <div class="paid-banner">no advertisement data here</div>
</section>
</body></html>`

func testAdapter(t *testing.T, baseURL string) *AutoRiaAdapter {
	t.Helper()
	client, err := httpclient.NewClient(httpclient.Config{
		Policy: httpclient.RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return NewAutoRiaAdapter(client, baseURL)
}

func TestParseListingPage(t *testing.T) {
	adapter := testAdapter(t, "https://auto.ria.com")
	brand := domain.BrandTarget{ID: "toyota", Title: "Toyota"}

	items := adapter.Parse(context.Background(), domain.RawPayload(listingPage), brand)

	// Третья карточка без ссылки на объявление отбрасывается
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	checks := map[string]interface{}{
		"make":            "Toyota",
		"model":           "Camry",
		"year":            2018,
		"price":           850000.0,
		"mileage":         120000,
		"location":        "Київ",
		"engine_type":     "Бензин",
		"engine_capacity": "2.5 л.",
		"transmission":    "Автомат",
		"source_url":      "https://auto.ria.com/uk/auto_toyota_camry_123.html",
		"image_url":       "https://cdn.riastatic.com/photos/auto/camry.jpg",
		"source_site":     SiteName,
	}
	for key, want := range checks {
		if got := first[key]; got != want {
			t.Errorf("first[%q] = %v (%T), want %v (%T)", key, got, got, want, want)
		}
	}

	second := items[1]
	// Марка не указана в карточке: наследуется от целевого бренда
	if got := second["make"]; got != "Toyota" {
		t.Errorf("second[make] = %v, want brand title fallback", got)
	}
	// Некорректный год остается строкой и уходит нормализатору как есть
	if got := second["year"]; got != "not-a-year" {
		t.Errorf("second[year] = %v, want raw string", got)
	}
	if _, ok := second["price"]; ok {
		t.Error("second item must not contain price key")
	}
	if _, ok := second["mileage"]; ok {
		t.Error("second item must not contain mileage key")
	}
}

func TestParseEmptyPage(t *testing.T) {
	adapter := testAdapter(t, "https://auto.ria.com")

	items := adapter.Parse(context.Background(), domain.RawPayload("<html><body></body></html>"), domain.BrandTarget{ID: "bmw"})
	if len(items) != 0 {
		t.Errorf("expected no items from empty page, got %d", len(items))
	}
}

func TestListBrandsFiltersPreferred(t *testing.T) {
	catalog := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"Results":[
			{"Make_Name":"TOYOTA"},
			{"Make_Name":"BMW"},
			{"Make_Name":"LAND ROVER"},
			{"Make_Name":"FORD"}
		]}`))
	}))
	defer catalog.Close()

	adapter := testAdapter(t, "https://auto.ria.com")
	adapter.catalogURL = catalog.URL

	brands, err := adapter.ListBrands(context.Background(), []string{"Toyota", "land rover"})
	if err != nil {
		t.Fatalf("ListBrands returned error: %v", err)
	}
	if len(brands) != 2 {
		t.Fatalf("expected 2 brands, got %d: %+v", len(brands), brands)
	}
	if brands[0].ID != "toyota" || brands[0].Title != "TOYOTA" {
		t.Errorf("unexpected first brand: %+v", brands[0])
	}
	if brands[1].ID != "land-rover" || brands[1].Title != "LAND ROVER" {
		t.Errorf("unexpected second brand: %+v", brands[1])
	}
}

func TestFetchContentRequestsBrandPage(t *testing.T) {
	var gotPath, gotPage string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotPage = r.URL.Query().Get("page")
		_, _ = w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	adapter := testAdapter(t, server.URL)

	payload, err := adapter.FetchContent(context.Background(), domain.BrandTarget{ID: "toyota"}, 2)
	if err != nil {
		t.Fatalf("FetchContent returned error: %v", err)
	}
	if payload == nil {
		t.Fatal("expected non-nil payload")
	}
	if gotPath != "/uk/car/toyota/" {
		t.Errorf("expected path /uk/car/toyota/, got %s", gotPath)
	}
	if gotPage != "2" {
		t.Errorf("expected page=2, got %q", gotPage)
	}
}

func TestFetchContentMissingBrandPageMeansAbsent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	adapter := testAdapter(t, server.URL)

	// Каталог NHTSA шире самого сайта, отсутствующая марка не должна
	// превращаться в ошибку запуска
	payload, err := adapter.FetchContent(context.Background(), domain.BrandTarget{ID: "delorean", Title: "DeLorean"}, 1)
	if err != nil {
		t.Fatalf("FetchContent returned error: %v", err)
	}
	if payload != nil {
		t.Errorf("expected nil payload for missing brand page, got %q", payload)
	}
}

func TestFetchContentPropagatesTransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	adapter := testAdapter(t, server.URL)

	_, err := adapter.FetchContent(context.Background(), domain.BrandTarget{ID: "toyota"}, 1)
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
}
