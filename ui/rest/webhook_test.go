package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	domainInbound "github.com/AzielCF/az-remind/domains/inbound"
	"github.com/AzielCF/az-remind/pkg/msgworker"
	"github.com/gofiber/fiber/v2"
)

// recordingInbound captures the events the webhook hands off.
type recordingInbound struct {
	mu     sync.Mutex
	events []domainInbound.Event
}

func (r *recordingInbound) HandleEvent(_ context.Context, event domainInbound.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *recordingInbound) received() []domainInbound.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domainInbound.Event, len(r.events))
	copy(out, r.events)
	return out
}

func newWebhookApp(t *testing.T) (*fiber.App, *recordingInbound) {
	t.Helper()

	app := fiber.New()
	service := &recordingInbound{}

	ctx, cancel := context.WithCancel(context.Background())
	pool := msgworker.NewInboundWorkerPool(2, 10)
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Stop()
	})

	InitRestWebhook(app, service, pool, "verify-secret")
	return app, service
}

func postWebhook(t *testing.T, app *fiber.App, body string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/webhook", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	return resp
}

func assertEventReceivedAck(t *testing.T, resp *http.Response) {
	t.Helper()
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d, want 200", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}
	if string(body) != "EVENT_RECEIVED" {
		t.Fatalf("unexpected body %q, want EVENT_RECEIVED", string(body))
	}
}

func TestWebhookReceive_MalformedBodyStillAcks(t *testing.T) {
	app, service := newWebhookApp(t)

	// The gateway redelivers on non-200; an unparseable payload must still
	// be acknowledged or it will be redelivered forever.
	resp := postWebhook(t, app, `{"entry": not-json`)
	assertEventReceivedAck(t, resp)

	if got := service.received(); len(got) != 0 {
		t.Fatalf("expected no events handled, got %d", len(got))
	}
}

func TestWebhookReceive_StatusOnlyPayloadAcks(t *testing.T) {
	app, service := newWebhookApp(t)

	resp := postWebhook(t, app, `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.X","status":"delivered"}]}}]}]}`)
	assertEventReceivedAck(t, resp)

	if got := service.received(); len(got) != 0 {
		t.Fatalf("expected no events handled, got %d", len(got))
	}
}

func TestWebhookReceive_TextMessageDispatched(t *testing.T) {
	app, service := newWebhookApp(t)

	resp := postWebhook(t, app, `{"object":"whatsapp_business_account","entry":[{"changes":[{"value":{"messages":[{"from":"919876543210","type":"text","text":{"body":"done"}}]}}]}]}`)
	assertEventReceivedAck(t, resp)

	// Processing is asynchronous; wait for the pool worker.
	deadline := time.Now().Add(2 * time.Second)
	for {
		got := service.received()
		if len(got) == 1 {
			if got[0].From != "919876543210" || got[0].Text != "done" {
				t.Fatalf("unexpected event %+v", got[0])
			}
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for event, got %d", len(got))
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestWebhookVerify_Handshake(t *testing.T) {
	app, _ := newWebhookApp(t)

	req := httptest.NewRequest(http.MethodGet,
		"/api/webhook?hub.mode=subscribe&hub.verify_token=verify-secret&hub.challenge=challenge-42", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	body, _ := io.ReadAll(resp.Body)
	if string(body) != "challenge-42" {
		t.Fatalf("unexpected challenge echo %q", string(body))
	}

	req = httptest.NewRequest(http.MethodGet,
		"/api/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=challenge-42", nil)
	resp, err = app.Test(req)
	if err != nil {
		t.Fatalf("app.Test() error: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("unexpected status %d, want 403", resp.StatusCode)
	}
}
