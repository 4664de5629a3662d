package telemetry

import (
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/posthog/posthog-go"
)

// mockEnqueuer captures events for testing.
type mockEnqueuer struct {
	mu     sync.Mutex
	events []posthog.Capture
	closes int
}

func (m *mockEnqueuer) Enqueue(msg posthog.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if capture, ok := msg.(posthog.Capture); ok {
		m.events = append(m.events, capture)
	}
	return nil
}

func (m *mockEnqueuer) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func (m *mockEnqueuer) getEvents() []posthog.Capture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]posthog.Capture(nil), m.events...)
}

func enabledConfig() *Config {
	return &Config{Enabled: true, ConsentAsked: true, AnonymousID: "anon-123"}
}

func newTestClient(cfg *Config) (*PostHogClient, *mockEnqueuer) {
	mock := &mockEnqueuer{}
	return newPostHogClientWithEnqueuer(mock, cfg, "1.2.3"), mock
}

func TestPostHogClient_Track_WhenEnabled(t *testing.T) {
	t.Setenv("DO_NOT_TRACK", "")
	client, mock := newTestClient(enabledConfig())

	client.Track(EventPlanGenerated, Properties{
		"tasks":       4,
		"repaired":    true,
		"duration_ms": int64(1500),
	})

	events := mock.getEvents()
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	event := events[0]
	if event.Event != EventPlanGenerated {
		t.Errorf("event name = %q", event.Event)
	}
	if event.DistinctId != "anon-123" {
		t.Errorf("distinct_id = %q", event.DistinctId)
	}
	if event.Properties["tasks"] != 4 || event.Properties["repaired"] != true {
		t.Errorf("custom properties lost: %v", event.Properties)
	}
	if event.Properties["os"] != runtime.GOOS || event.Properties["arch"] != runtime.GOARCH {
		t.Errorf("platform properties missing: %v", event.Properties)
	}
	if event.Properties["cli_version"] != "1.2.3" {
		t.Errorf("cli_version = %v", event.Properties["cli_version"])
	}
	if event.Properties["$process_person_profile"] != false {
		t.Error("person profiles must be disabled")
	}
}

func TestPostHogClient_Track_Disabled(t *testing.T) {
	cfg := enabledConfig()
	cfg.Enabled = false
	client, mock := newTestClient(cfg)

	client.Track(EventPlanGenerated, nil)

	if n := len(mock.getEvents()); n != 0 {
		t.Errorf("expected 0 events when disabled, got %d", n)
	}
}

func TestPostHogClient_Track_DoNotTrack(t *testing.T) {
	t.Setenv("DO_NOT_TRACK", "1")
	client, mock := newTestClient(enabledConfig())

	client.Track(EventPlanGenerated, nil)

	if n := len(mock.getEvents()); n != 0 {
		t.Errorf("DO_NOT_TRACK ignored: %d events", n)
	}
}

func TestPostHogClient_Track_NilConfig(t *testing.T) {
	client, mock := newTestClient(nil)

	client.Track("test_event", nil)

	if n := len(mock.getEvents()); n != 0 {
		t.Errorf("expected 0 events with nil config, got %d", n)
	}
}

func TestPostHogClient_Close(t *testing.T) {
	t.Setenv("DO_NOT_TRACK", "")
	client, mock := newTestClient(enabledConfig())

	if err := client.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := client.Close(); err != nil {
		t.Fatalf("second Close() error = %v", err)
	}
	if mock.closes != 1 {
		t.Errorf("underlying client closed %d times", mock.closes)
	}

	client.Track("after_close", nil)
	if n := len(mock.getEvents()); n != 0 {
		t.Errorf("tracked after close: %d events", n)
	}
}

func TestNew_FallsBackToNoop(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
	}{
		{"empty api key", ClientConfig{Config: enabledConfig()}},
		{"nil config", ClientConfig{APIKey: "phc_test"}},
		{"not opted in", ClientConfig{APIKey: "phc_test", Config: &Config{AnonymousID: "x"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := New(tt.cfg)
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if _, ok := c.(NoopClient); !ok {
				t.Fatalf("expected NoopClient, got %T", c)
			}
			c.Track("event", nil)
			if err := c.Close(); err != nil {
				t.Errorf("Close() error = %v", err)
			}
		})
	}
}

func TestPostHogClient_Track_Concurrent(t *testing.T) {
	t.Setenv("DO_NOT_TRACK", "")
	client, mock := newTestClient(enabledConfig())

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			client.Track("concurrent_event", Properties{"iteration": n})
		}(i)
	}
	wg.Wait()

	if n := len(mock.getEvents()); n != 100 {
		t.Errorf("expected 100 events, got %d", n)
	}
}

func TestFailureProperties(t *testing.T) {
	props := FailureProperties("oracle_timeout", 2500*time.Millisecond)
	if props["error_type"] != "oracle_timeout" || props["duration_ms"] != int64(2500) {
		t.Errorf("unexpected properties: %v", props)
	}
}
