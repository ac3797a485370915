package pipeline

import (
	"errors"
	"sync"
	"testing"
	"time"

	"scribe/internal/services"
)

// recordingSink collects published events for assertions.
type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) Publish(event Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

func (s *recordingSink) byKind(kind EventKind) []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	var matched []Event
	for _, event := range s.events {
		if event.Kind == kind {
			matched = append(matched, event)
		}
	}
	return matched
}

func TestAskConflictDeliversDecision(t *testing.T) {
	sink := &recordingSink{}
	token := NewToken()
	rendezvous := NewRendezvous(sink, token, time.Second)

	go func() {
		for !rendezvous.DecideConflict(ConflictDecision{Action: ConflictRename, NewStem: "talk-2"}) {
			time.Sleep(time.Millisecond)
		}
	}()

	decision, err := rendezvous.AskConflict("talk", "/out/talk")
	if err != nil {
		t.Fatalf("AskConflict: %v", err)
	}
	if decision.Action != ConflictRename || decision.NewStem != "talk-2" {
		t.Fatalf("decision = %+v", decision)
	}

	requests := sink.byKind(EventConflictRequest)
	if len(requests) != 1 {
		t.Fatalf("conflict requests = %d, want 1", len(requests))
	}
	if requests[0].Stem != "talk" || requests[0].ExistingDir != "/out/talk" {
		t.Fatalf("request = %+v", requests[0])
	}
}

func TestAskConflictTimesOut(t *testing.T) {
	rendezvous := NewRendezvous(NopSink(), NewToken(), 20*time.Millisecond)

	_, err := rendezvous.AskConflict("talk", "/out/talk")
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
}

func TestAskConflictObservesCancellation(t *testing.T) {
	token := NewToken()
	rendezvous := NewRendezvous(NopSink(), token, time.Second)

	go func() {
		time.Sleep(10 * time.Millisecond)
		token.Cancel()
	}()

	_, err := rendezvous.AskConflict("talk", "/out/talk")
	if err != errCancelled {
		t.Fatalf("err = %v, want errCancelled", err)
	}
}

func TestDecideWithoutOutstandingRequest(t *testing.T) {
	rendezvous := NewRendezvous(NopSink(), NewToken(), time.Second)

	if rendezvous.DecideConflict(ConflictDecision{Action: ConflictSkip}) {
		t.Fatal("DecideConflict should report false with no request outstanding")
	}
	if rendezvous.DecideDuplicate(DuplicateDecision{Action: DuplicateSkip}) {
		t.Fatal("DecideDuplicate should report false with no request outstanding")
	}
}

func TestAskDuplicateDeliversDecision(t *testing.T) {
	sink := &recordingSink{}
	rendezvous := NewRendezvous(sink, NewToken(), time.Second)

	go func() {
		for !rendezvous.DecideDuplicate(DuplicateDecision{Action: DuplicateOverwrite}) {
			time.Sleep(time.Millisecond)
		}
	}()

	decision, err := rendezvous.AskDuplicate("My Talk", "/downloads/My Talk.m4a")
	if err != nil {
		t.Fatalf("AskDuplicate: %v", err)
	}
	if decision.Action != DuplicateOverwrite {
		t.Fatalf("decision = %+v", decision)
	}
	if len(sink.byKind(EventDuplicateRequest)) != 1 {
		t.Fatal("expected exactly one duplicate request event")
	}
}

func TestConflictCacheRememberAndReplay(t *testing.T) {
	cache := &conflictCache{}

	if _, ok := cache.replay(); ok {
		t.Fatal("empty cache should not replay")
	}

	cache.remember(ConflictDecision{Action: ConflictOverwrite})
	if _, ok := cache.replay(); ok {
		t.Fatal("decision without apply-to-all should not be cached")
	}

	cache.remember(ConflictDecision{Action: ConflictOverwrite, ApplyToAll: true})
	decision, ok := cache.replay()
	if !ok || decision.Action != ConflictOverwrite {
		t.Fatalf("replay = %+v, %v", decision, ok)
	}
}

func TestConflictCacheDowngradesRenameToSkip(t *testing.T) {
	cache := &conflictCache{}
	cache.remember(ConflictDecision{Action: ConflictRename, NewStem: "other", ApplyToAll: true})

	decision, ok := cache.replay()
	if !ok {
		t.Fatal("apply-to-all rename should be cached")
	}
	if decision.Action != ConflictSkip {
		t.Fatalf("replayed action = %q, want skip", decision.Action)
	}
	if decision.NewStem != "" {
		t.Fatalf("replayed stem = %q, want empty", decision.NewStem)
	}
}
