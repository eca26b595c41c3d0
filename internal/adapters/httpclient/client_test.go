package httpclient

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func testPolicy(maxAttempts int) RetryPolicy {
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Delay:       time.Millisecond,
		RetryStatus: func(statusCode int) bool { return statusCode == http.StatusBadGateway },
	}
}

func newTestClient(t *testing.T, policy RetryPolicy) *Client {
	t.Helper()
	client, err := NewClient(Config{Policy: policy, Timeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	return client
}

func TestSendSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "3" {
			t.Errorf("expected query param page=3, got %q", r.URL.RawQuery)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("payload"))
	}))
	defer server.Close()

	client := newTestClient(t, testPolicy(3))

	resp, err := client.Send(context.Background(), Request{
		URL:    server.URL,
		Params: url.Values{"page": {"3"}},
	})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if string(resp.Body) != "payload" {
		t.Errorf("expected body %q, got %q", "payload", resp.Body)
	}
}

func TestSendRetriesOn502UntilSuccess(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, testPolicy(5))

	resp, err := client.Send(context.Background(), Request{URL: server.URL})
	if err != nil {
		t.Fatalf("Send returned error: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("expected 3 attempts, got %d", got)
	}
}

func TestSendExhaustsRetryBudgetOn502(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	policy := DefaultRetryPolicy()
	policy.Delay = time.Millisecond
	client := newTestClient(t, policy)

	resp, err := client.Send(context.Background(), Request{URL: server.URL})
	if err == nil {
		t.Fatal("expected error after exhausting retries, got nil")
	}
	if resp != nil {
		t.Errorf("expected nil response, got %+v", resp)
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("expected ErrRetriesExhausted in chain, got %v", err)
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError in chain, got %v", err)
	}
	if statusErr.StatusCode != http.StatusBadGateway {
		t.Errorf("expected last status 502, got %d", statusErr.StatusCode)
	}

	if got := calls.Load(); got != int32(policy.MaxAttempts) {
		t.Errorf("expected exactly %d attempts, got %d", policy.MaxAttempts, got)
	}
}

func TestSendNonRetryableStatusFailsImmediately(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(t, testPolicy(10))

	_, err := client.Send(context.Background(), Request{URL: server.URL})
	if err == nil {
		t.Fatal("expected error for 404 response, got nil")
	}
	if errors.Is(err, ErrRetriesExhausted) {
		t.Error("404 must not be treated as retry exhaustion")
	}

	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", statusErr.StatusCode)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt, got %d", got)
	}
}

func TestSendRetriesOnConnectionError(t *testing.T) {
	// Сервер закрывается сразу, каждый вызов дает сетевую ошибку.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	client := newTestClient(t, testPolicy(3))

	_, err := client.Send(context.Background(), Request{URL: serverURL})
	if err == nil {
		t.Fatal("expected error for unreachable server, got nil")
	}
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Errorf("expected ErrRetriesExhausted in chain, got %v", err)
	}
}

func TestSendStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	policy := RetryPolicy{
		MaxAttempts: 100,
		Delay:       50 * time.Millisecond,
		RetryStatus: func(statusCode int) bool { return statusCode == http.StatusBadGateway },
	}
	client := newTestClient(t, policy)

	ctx, cancel := context.WithTimeout(context.Background(), 120*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Send(ctx, Request{URL: server.URL})
	if err == nil {
		t.Fatal("expected error after context cancellation, got nil")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected context.DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > time.Second {
		t.Errorf("Send did not stop promptly after cancellation, took %v", elapsed)
	}
}

func TestNewClientRejectsZeroAttempts(t *testing.T) {
	_, err := NewClient(Config{Policy: RetryPolicy{MaxAttempts: 0}})
	if err == nil {
		t.Fatal("expected error for policy without attempts, got nil")
	}
}

func TestSendSetsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient(t, testPolicy(1))

	if _, err := client.Send(context.Background(), Request{URL: server.URL}); err != nil {
		t.Fatalf("Send returned error: %v", err)
	}

	found := false
	for _, ua := range userAgents {
		if ua == gotUA {
			found = true
			break
		}
	}
	if !found {
		t.Errorf("User-Agent %q is not from the configured pool", gotUA)
	}
}
