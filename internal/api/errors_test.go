package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestTimeoutFloor(t *testing.T) {
	tests := []struct {
		name    string
		seconds int
		want    time.Duration
	}{
		{"below floor raised", 3, 10 * time.Second},
		{"at floor", 10, 10 * time.Second},
		{"above floor kept", 120, 120 * time.Second},
		{"zero gets default", 0, 120 * time.Second},
		{"negative gets default", -5, 120 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewClient(ClientConfig{TimeoutSeconds: tt.seconds}).(*client)
			if c.timeout != tt.want {
				t.Errorf("timeout = %v, want %v", c.timeout, tt.want)
			}
		})
	}
}

func TestClassify(t *testing.T) {
	cause := errors.New("boom")

	t.Run("attempt deadline is timeout", func(t *testing.T) {
		parent := context.Background()
		attempt, cancel := context.WithTimeout(parent, -time.Second)
		defer cancel()

		err := classify(parent, attempt, cause)
		if !errors.Is(err, ErrTimeout) {
			t.Errorf("Expected ErrTimeout, got %v", err)
		}
	})

	t.Run("parent cancel wins over deadline", func(t *testing.T) {
		parent, cancelParent := context.WithCancel(context.Background())
		cancelParent()
		attempt, cancel := context.WithTimeout(parent, -time.Second)
		defer cancel()

		err := classify(parent, attempt, cause)
		if !errors.Is(err, ErrCancelled) {
			t.Errorf("Expected ErrCancelled, got %v", err)
		}
	})

	t.Run("other failures are network errors", func(t *testing.T) {
		parent := context.Background()
		attempt, cancel := context.WithTimeout(parent, time.Minute)
		defer cancel()

		err := classify(parent, attempt, cause)
		var netErr *NetworkError
		if !errors.As(err, &netErr) {
			t.Errorf("Expected NetworkError, got %v", err)
		}
	})
}

func TestStatusError_Unwrap(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusUnauthorized, ErrUnauthorized},
		{http.StatusTooManyRequests, ErrRateLimited},
		{http.StatusServiceUnavailable, ErrServiceUnavailable},
	}

	for _, tt := range tests {
		err := &StatusError{StatusCode: tt.status}
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: expected errors.Is(%v)", tt.status, tt.want)
		}
	}
}

func TestTruncateBody(t *testing.T) {
	long := strings.Repeat("a", 500)
	if got := truncateBody(long); len(got) != bodyPrefixLimit {
		t.Errorf("truncateBody length = %d, want %d", len(got), bodyPrefixLimit)
	}
	if got := truncateBody("short"); got != "short" {
		t.Errorf("truncateBody(short) = %q", got)
	}
}
