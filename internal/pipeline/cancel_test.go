package pipeline

import (
	"testing"
	"time"
)

func TestTokenCancelIsIdempotent(t *testing.T) {
	token := NewToken()
	if token.IsCancelled() {
		t.Fatal("new token should not be cancelled")
	}

	token.Cancel()
	token.Cancel()

	if !token.IsCancelled() {
		t.Fatal("token should be cancelled")
	}
	select {
	case <-token.Done():
	default:
		t.Fatal("done channel should be closed after cancel")
	}
}

func TestTokenOnCancelFiresOnce(t *testing.T) {
	token := NewToken()
	calls := 0
	token.OnCancel(func() { calls++ })

	token.Cancel()
	token.Cancel()

	if calls != 1 {
		t.Fatalf("listener calls = %d, want 1", calls)
	}
}

func TestTokenOnCancelAfterCancelFiresImmediately(t *testing.T) {
	token := NewToken()
	token.Cancel()

	fired := false
	token.OnCancel(func() { fired = true })

	if !fired {
		t.Fatal("listener registered after cancel should fire immediately")
	}
}

func TestTokenWait(t *testing.T) {
	token := NewToken()
	if token.Wait(10 * time.Millisecond) {
		t.Fatal("wait should time out on an unset token")
	}

	go token.Cancel()
	if !token.Wait(time.Second) {
		t.Fatal("wait should observe cancellation")
	}
}
