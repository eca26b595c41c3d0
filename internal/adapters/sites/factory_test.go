package sites

import (
	"errors"
	"testing"
	"time"

	"github.com/Thebloodraccoon/car-parser/internal/adapters/httpclient"
	"github.com/Thebloodraccoon/car-parser/internal/core/domain"
)

func newFactory(t *testing.T) *Factory {
	t.Helper()
	client, err := httpclient.NewClient(httpclient.Config{
		Policy: httpclient.RetryPolicy{MaxAttempts: 1, Delay: time.Millisecond},
	})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return NewFactory(client)
}

func TestCreateKnownSites(t *testing.T) {
	factory := newFactory(t)

	tests := []struct {
		siteID   string
		wantName string
	}{
		{"autoria", "autoria"},
		{"AutoRia", "autoria"},
		{"  autobazar ", "autobazar"},
		{"AUTOBAZAR", "autobazar"},
	}

	for _, tt := range tests {
		adapter, err := factory.Create(tt.siteID)
		if err != nil {
			t.Errorf("Create(%q) returned error: %v", tt.siteID, err)
			continue
		}
		if adapter.SiteName() != tt.wantName {
			t.Errorf("Create(%q).SiteName() = %q, want %q", tt.siteID, adapter.SiteName(), tt.wantName)
		}
	}
}

func TestCreateUnknownSite(t *testing.T) {
	factory := newFactory(t)

	adapter, err := factory.Create("mobile-de")
	if adapter != nil {
		t.Errorf("expected nil adapter for unknown site, got %T", adapter)
	}
	if !errors.Is(err, domain.ErrUnknownSite) {
		t.Errorf("expected ErrUnknownSite, got %v", err)
	}
}
