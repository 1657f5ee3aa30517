package connector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ilee165/network-device-backup/internal/model"
)

// scriptedConnector returns one canned outcome per attempt, in order.
// The last outcome repeats if more attempts arrive than scripted.
type scriptedConnector struct {
	outcomes []scriptedOutcome
	opens    int
	closes   int
}

type scriptedOutcome struct {
	openErr  error
	config   string
	fetchErr error
}

func (c *scriptedConnector) Open(ctx context.Context, device *model.Device) (Session, error) {
	i := c.opens
	if i >= len(c.outcomes) {
		i = len(c.outcomes) - 1
	}
	c.opens++

	out := c.outcomes[i]
	if out.openErr != nil {
		return nil, out.openErr
	}
	return &scriptedSession{conn: c, out: out}, nil
}

type scriptedSession struct {
	conn *scriptedConnector
	out  scriptedOutcome
}

func (s *scriptedSession) FetchConfig(ctx context.Context) (string, error) {
	return s.out.config, s.out.fetchErr
}

func (s *scriptedSession) Close() error {
	s.conn.closes++
	return nil
}

func testDevice() *model.Device {
	return &model.Device{
		Name:    "sw-01",
		Host:    "10.0.0.1",
		Port:    22,
		Timeout: 5,
	}
}

func TestFetchSucceedsFirstAttempt(t *testing.T) {
	conn := &scriptedConnector{outcomes: []scriptedOutcome{
		{config: "hostname sw-01\n"},
	}}
	r := NewRetrier(conn, 3, time.Millisecond)

	text, attempts, err := r.Fetch(context.Background(), testDevice())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if attempts != 1 {
		t.Errorf("expected 1 attempt, got %d", attempts)
	}
	if text != "hostname sw-01\n" {
		t.Errorf("unexpected config: %q", text)
	}
	if conn.closes != 1 {
		t.Errorf("expected 1 session close, got %d", conn.closes)
	}
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	conn := &scriptedConnector{outcomes: []scriptedOutcome{
		{openErr: errors.New("connection refused")},
		{openErr: errors.New("connection reset by peer")},
		{config: "hostname sw-01\n"},
	}}
	r := NewRetrier(conn, 3, time.Millisecond)

	text, attempts, err := r.Fetch(context.Background(), testDevice())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}
	if text == "" {
		t.Error("expected config text on eventual success")
	}
}

func TestFetchExhaustsAttempts(t *testing.T) {
	conn := &scriptedConnector{outcomes: []scriptedOutcome{
		{openErr: errors.New("connection refused")},
	}}
	r := NewRetrier(conn, 3, time.Millisecond)

	_, attempts, err := r.Fetch(context.Background(), testDevice())
	if err == nil {
		t.Fatal("expected an error after exhausting attempts")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts, got %d", attempts)
	}

	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if cerr.Kind != FailureTransient {
		t.Errorf("expected transient classification, got %v", cerr.Kind)
	}
	if cerr.Attempts != 3 {
		t.Errorf("error should carry attempt count 3, got %d", cerr.Attempts)
	}
}

func TestFetchAuthFailureNeverRetried(t *testing.T) {
	conn := &scriptedConnector{outcomes: []scriptedOutcome{
		{openErr: errors.New("ssh: unable to authenticate, attempted methods [password]")},
	}}
	r := NewRetrier(conn, 5, time.Millisecond)

	_, attempts, err := r.Fetch(context.Background(), testDevice())
	if err == nil {
		t.Fatal("expected an auth error")
	}
	if attempts != 1 {
		t.Errorf("auth failure must not be retried, got %d attempts", attempts)
	}
	if conn.opens != 1 {
		t.Errorf("expected exactly 1 open, got %d", conn.opens)
	}

	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if cerr.Kind != FailureAuth {
		t.Errorf("expected auth classification, got %v", cerr.Kind)
	}
}

func TestFetchEmptyConfigIsFailure(t *testing.T) {
	conn := &scriptedConnector{outcomes: []scriptedOutcome{
		{config: "   \n\t\n"},
	}}
	r := NewRetrier(conn, 3, time.Millisecond)

	_, attempts, err := r.Fetch(context.Background(), testDevice())
	if err == nil {
		t.Fatal("whitespace-only config must be a failure")
	}
	if attempts != 1 {
		t.Errorf("empty fetch must not be retried, got %d attempts", attempts)
	}

	var cerr *Error
	if !errors.As(err, &cerr) {
		t.Fatalf("expected *Error, got %T", err)
	}
	if cerr.Kind != FailureEmpty {
		t.Errorf("expected empty classification, got %v", cerr.Kind)
	}
}

func TestFetchClosesSessionOnEveryPath(t *testing.T) {
	conn := &scriptedConnector{outcomes: []scriptedOutcome{
		{fetchErr: errors.New("read timeout")},
		{config: ""},
		{config: "hostname sw-01\n"},
	}}
	r := NewRetrier(conn, 3, time.Millisecond)

	r.Fetch(context.Background(), testDevice())
	opened := conn.opens
	if conn.closes != opened {
		t.Errorf("every opened session must be closed: opened %d, closed %d", opened, conn.closes)
	}
}

func TestFetchStopsOnContextCancel(t *testing.T) {
	conn := &scriptedConnector{outcomes: []scriptedOutcome{
		{openErr: errors.New("connection refused")},
	}}
	r := NewRetrier(conn, 10, time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() {
		_, _, err := r.Fetch(ctx, testDevice())
		done <- err
	}()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected an error after cancellation")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Fetch did not stop after context cancellation")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureKind
	}{
		{"auth text", errors.New("ssh: unable to authenticate"), FailureAuth},
		{"permission denied", errors.New("permission denied (publickey,password)"), FailureAuth},
		{"empty config", ErrEmptyConfig, FailureEmpty},
		{"deadline", context.DeadlineExceeded, FailureTimeout},
		{"refused", errors.New("dial tcp: connection refused"), FailureTransient},
		{"wrapped classified", &Error{Kind: FailureAuth, Attempts: 1, Err: errors.New("x")}, FailureAuth},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.err); got != tt.want {
				t.Errorf("Classify(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestDialectFor(t *testing.T) {
	tests := []struct {
		deviceType string
		command    string
	}{
		{"cisco_ios", "show running-config"},
		{"juniper_junos", "show configuration"},
		{"hp_comware", "display current-configuration"},
		{"cisco_ios_xe_custom", "show running-config"},
		{"unknown_vendor", "show running-config"},
	}

	for _, tt := range tests {
		t.Run(tt.deviceType, func(t *testing.T) {
			d := DialectFor(tt.deviceType)
			if d.FetchCommand != tt.command {
				t.Errorf("DialectFor(%q).FetchCommand = %q, want %q", tt.deviceType, d.FetchCommand, tt.command)
			}
		})
	}
}
