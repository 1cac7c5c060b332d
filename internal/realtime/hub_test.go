package realtime

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func TestHubPublishReachesClients(t *testing.T) {
	hub := NewHub(2, nil)
	a := hub.register()
	b := hub.register()

	if err := hub.Publish(context.Background(), Message{Event: "new_ticket", Data: map[string]int{"id": 7}}); err != nil {
		t.Fatalf("publish: %v", err)
	}
	for _, c := range []*client{a, b} {
		select {
		case payload := <-c.send:
			var got struct {
				Event string         `json:"event"`
				Data  map[string]int `json:"data"`
			}
			if err := json.Unmarshal(payload, &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Event != "new_ticket" || got.Data["id"] != 7 {
				t.Errorf("unexpected message %s", payload)
			}
		default:
			t.Fatal("client did not receive the message")
		}
	}
}

func TestHubDropsWhenClientBufferFull(t *testing.T) {
	hub := NewHub(1, nil)
	c := hub.register()

	if n := hub.Broadcast([]byte("one")); n != 1 {
		t.Fatalf("first broadcast delivered %d", n)
	}
	if n := hub.Broadcast([]byte("two")); n != 0 {
		t.Fatalf("second broadcast should be dropped, delivered %d", n)
	}
	if got := string(<-c.send); got != "one" {
		t.Errorf("queued = %q", got)
	}
}

func TestHubUnregisterAndClose(t *testing.T) {
	hub := NewHub(0, nil)
	a := hub.register()
	hub.register()
	if hub.Clients() != 2 {
		t.Fatalf("clients = %d", hub.Clients())
	}
	hub.unregister(a)
	hub.unregister(a)
	if _, ok := <-a.send; ok {
		t.Error("unregistered client channel should be closed")
	}
	hub.Close()
	if hub.Clients() != 0 {
		t.Errorf("clients after close = %d", hub.Clients())
	}
	if n := hub.Broadcast([]byte("x")); n != 0 {
		t.Errorf("broadcast after close delivered %d", n)
	}
}

func TestRequireUpgradeRejectsPlainHTTP(t *testing.T) {
	app := fiber.New()
	app.Get("/ws", RequireUpgrade, func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) })

	resp, err := app.Test(httptest.NewRequest("GET", "/ws", nil))
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("status = %d, want 426", resp.StatusCode)
	}
}
