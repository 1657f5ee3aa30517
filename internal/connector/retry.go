package connector

import (
	"context"
	"strings"
	"time"

	"github.com/ilee165/network-device-backup/internal/log"
	"github.com/ilee165/network-device-backup/internal/model"
)

// fetchState is one step of the retry loop. The loop is written as an
// explicit state machine so the auth-failure exception to the general
// retry rule is a transition rule, not a buried special case.
type fetchState int

const (
	stateAttempting fetchState = iota
	stateRetryWait
	stateFailed
	stateSucceeded
)

// Retrier wraps a Connector with bounded retry. Timeouts and transient
// failures are retried with a fixed inter-attempt delay up to
// maxAttempts; authentication failures and empty fetches return
// immediately. The underlying session is released on every exit path.
type Retrier struct {
	connector   Connector
	maxAttempts int
	delay       time.Duration
}

// NewRetrier creates a retrier. maxAttempts below 1 is clamped to 1.
func NewRetrier(c Connector, maxAttempts int, delay time.Duration) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Retrier{
		connector:   c,
		maxAttempts: maxAttempts,
		delay:       delay,
	}
}

// Fetch runs up to maxAttempts connect+fetch cycles against the device
// and returns the configuration text and the number of attempts made.
// On failure the returned error is a *Error carrying the
// classification of the last observed failure.
func (r *Retrier) Fetch(ctx context.Context, device *model.Device) (string, int, error) {
	var (
		state   = stateAttempting
		attempt int
		lastErr error
		config  string
	)

	for {
		switch state {
		case stateAttempting:
			attempt++
			log.Debug("Connection attempt", "device", device.Name, "attempt", attempt, "max", r.maxAttempts)

			text, err := r.attempt(ctx, device)
			if err == nil {
				config = text
				state = stateSucceeded
				break
			}
			lastErr = err

			switch Classify(err) {
			case FailureAuth:
				log.Error("Authentication failed, not retrying", "device", device.Name, "error", err)
				state = stateFailed
			case FailureEmpty:
				log.Error("Empty configuration retrieved, not retrying", "device", device.Name)
				state = stateFailed
			default:
				if attempt >= r.maxAttempts {
					log.Error("All connection attempts failed", "device", device.Name, "attempts", attempt, "error", err)
					state = stateFailed
				} else {
					log.Warn("Attempt failed, will retry", "device", device.Name, "attempt", attempt, "delay", r.delay, "error", err)
					state = stateRetryWait
				}
			}

		case stateRetryWait:
			timer := time.NewTimer(r.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				lastErr = ctx.Err()
				state = stateFailed
			case <-timer.C:
				state = stateAttempting
			}

		case stateFailed:
			return "", attempt, &Error{Kind: Classify(lastErr), Attempts: attempt, Err: lastErr}

		case stateSucceeded:
			return config, attempt, nil
		}
	}
}

// attempt performs one connect+fetch cycle. The session is closed
// before returning regardless of outcome.
func (r *Retrier) attempt(ctx context.Context, device *model.Device) (string, error) {
	sess, err := r.connector.Open(ctx, device)
	if err != nil {
		return "", err
	}
	defer sess.Close()

	text, err := sess.FetchConfig(ctx)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyConfig
	}
	return text, nil
}
