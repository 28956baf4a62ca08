package pipeline

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/docvoice/docvoice/internal/tts"
)

func TestIsRetryable(t *testing.T) {
	if IsRetryable(errors.New("plain failure")) {
		t.Error("plain error marked retryable")
	}
	retryable := &tts.RetryableError{StatusCode: 429, Message: "rate limited"}
	if !IsRetryable(retryable) {
		t.Error("retryable error not recognized")
	}
	if !IsRetryable(fmt.Errorf("synthesize: %w", retryable)) {
		t.Error("wrapped retryable error not recognized")
	}
}

func TestBackoffGrowsAndCaps(t *testing.T) {
	for attempt := 0; attempt < 10; attempt++ {
		d := Backoff(attempt)
		base := time.Duration(1<<uint(attempt)) * time.Second
		if base > 30*time.Second {
			base = 30 * time.Second
		}
		if d < base || d > base+base/2 {
			t.Errorf("Backoff(%d) = %v, outside [%v, %v]", attempt, d, base, base+base/2)
		}
	}
}
