package sequence

import (
	"context"
	"errors"
	"testing"
)

// fakeCounter is an in-memory Counter with an injectable failure.
type fakeCounter struct {
	values map[string]int64
	err    error
}

func newFakeCounter() *fakeCounter {
	return &fakeCounter{values: make(map[string]int64)}
}

func (f *fakeCounter) Incr(_ context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.values[key]++
	return f.values[key], nil
}

func (f *fakeCounter) Get(_ context.Context, key string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.values[key], nil
}

func TestRecoverNext_FreshSession(t *testing.T) {
	s := New(newFakeCounter())

	next, err := s.RecoverNext(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("RecoverNext: %v", err)
	}
	if next != 1 {
		t.Errorf("expected 1 for absent counter, got %d", next)
	}
}

func TestRecoverNext_AfterCommits(t *testing.T) {
	c := newFakeCounter()
	c.values[CounterKey("sess-1")] = 9
	s := New(c)

	next, err := s.RecoverNext(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("RecoverNext: %v", err)
	}
	if next != 10 {
		t.Errorf("expected 10 after counter at 9, got %d", next)
	}
}

func TestRecoverNext_DoesNotConsume(t *testing.T) {
	c := newFakeCounter()
	s := New(c)

	for i := 0; i < 3; i++ {
		next, err := s.RecoverNext(context.Background(), "sess-1")
		if err != nil {
			t.Fatalf("RecoverNext: %v", err)
		}
		if next != 1 {
			t.Errorf("call %d: expected 1, got %d", i, next)
		}
	}
	if c.values[CounterKey("sess-1")] != 0 {
		t.Errorf("RecoverNext must not mutate the counter, got %d", c.values[CounterKey("sess-1")])
	}
}

func TestNext_StrictlyIncreasing(t *testing.T) {
	s := New(newFakeCounter())

	var prev int64
	for i := 0; i < 5; i++ {
		seq, err := s.Next(context.Background(), "sess-1")
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if seq <= prev {
			t.Errorf("sequence not strictly increasing: %d after %d", seq, prev)
		}
		prev = seq
	}
}

func TestNext_SessionsIndependent(t *testing.T) {
	s := New(newFakeCounter())

	a, _ := s.Next(context.Background(), "sess-a")
	b, _ := s.Next(context.Background(), "sess-b")
	if a != 1 || b != 1 {
		t.Errorf("expected independent counters, got a=%d b=%d", a, b)
	}
}

func TestNext_StoreFailureConsumesNothing(t *testing.T) {
	c := newFakeCounter()
	s := New(c)

	c.err = errors.New("connection refused")
	if _, err := s.Next(context.Background(), "sess-1"); err == nil {
		t.Fatal("expected error from failing counter")
	}

	c.err = nil
	seq, err := s.Next(context.Background(), "sess-1")
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if seq != 1 {
		t.Errorf("failed Next must not consume a sequence, got %d", seq)
	}
}
