package lock

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"
)

func TestNormalizeKeysSortsAndDedupes(t *testing.T) {
	got := normalizeKeys([]string{"B", "A", "B", "C", "A"})
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestKeyedMutexSerializesSameKey(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		maxSeen int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := m.Lock(ctx, "K")
			if err != nil {
				t.Errorf("lock failed: %v", err)
				return
			}
			mu.Lock()
			inside++
			if inside > maxSeen {
				maxSeen = inside
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			inside--
			mu.Unlock()
			unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
	if len(m.locks) != 0 {
		t.Errorf("expected entries to be dropped, %d left", len(m.locks))
	}
}

func TestKeyedMutexDifferentKeysDoNotBlock(t *testing.T) {
	m := NewKeyedMutex()
	ctx := context.Background()

	unlockA, err := m.Lock(ctx, "A")
	if err != nil {
		t.Fatal(err)
	}
	defer unlockA()

	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	unlockB, err := m.Lock(ctx, "B")
	if err != nil {
		t.Fatalf("expected B to be free: %v", err)
	}
	unlockB()
}

func TestKeyedMutexHonoursContext(t *testing.T) {
	m := NewKeyedMutex()
	unlock, err := m.Lock(context.Background(), "B")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := m.Lock(ctx, "B", "A"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	// A was taken before waiting on B and must have been released.
	ctx, cancel = context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	unlockA, err := m.Lock(ctx, "A")
	if err != nil {
		t.Fatalf("expected A to be released: %v", err)
	}
	unlockA()

	unlock()
	unlock() // second call is a no-op

	if len(m.locks) != 0 {
		t.Errorf("expected entries to be dropped, %d left", len(m.locks))
	}
}
