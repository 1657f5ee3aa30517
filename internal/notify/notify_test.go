package notify

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ilee165/network-device-backup/internal/config"
	"github.com/ilee165/network-device-backup/internal/model"
)

func sampleResult() *model.RunResult {
	result := model.NewRunResult("all enabled devices", 2)
	result.Add(model.DeviceResult{Device: "sw-01", Host: "10.0.0.1", Success: true, Changed: true})
	result.Add(model.DeviceResult{Device: "sw-02", Host: "10.0.0.2", Error: "connection refused"})
	result.Finalize()
	return result
}

func TestWebhookDeliversSummary(t *testing.T) {
	var (
		received    []byte
		contentType string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		contentType = r.Header.Get("Content-Type")
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(config.NotificationSettings{
		Webhook: config.WebhookSettings{Enabled: true, URL: srv.URL},
	})
	result := sampleResult()
	n.Send(result, "report body")

	if received == nil {
		t.Fatal("webhook was not called")
	}
	if contentType != "application/json" {
		t.Errorf("content type = %q, want application/json", contentType)
	}

	var payload struct {
		RunID     string `json:"run_id"`
		Total     int    `json:"total"`
		Succeeded int    `json:"succeeded"`
		Failed    int    `json:"failed"`
		Changed   int    `json:"changed"`
	}
	if err := json.Unmarshal(received, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload.RunID != result.ID {
		t.Errorf("run_id = %q, want %q", payload.RunID, result.ID)
	}
	if payload.Total != 2 || payload.Succeeded != 1 || payload.Failed != 1 || payload.Changed != 1 {
		t.Errorf("counters wrong in payload: %+v", payload)
	}
}

func TestWebhookFailureDoesNotPropagate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New(config.NotificationSettings{
		Webhook: config.WebhookSettings{Enabled: true, URL: srv.URL},
	})

	// Send must swallow the delivery failure.
	n.Send(sampleResult(), "report body")
}

func TestDisabledChannelsAreSkipped(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	n := New(config.NotificationSettings{
		Webhook: config.WebhookSettings{Enabled: false, URL: srv.URL},
	})
	n.Send(sampleResult(), "report body")

	if called {
		t.Error("disabled webhook must not be called")
	}
}

func TestWebhookWithoutURLIsAnError(t *testing.T) {
	n := New(config.NotificationSettings{
		Webhook: config.WebhookSettings{Enabled: true},
	})
	if err := n.sendWebhook(sampleResult()); err == nil {
		t.Error("enabled webhook without a URL must fail")
	}
}
