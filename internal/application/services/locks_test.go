package services

import (
	"sync"
	"testing"
	"time"
)

func TestUserLocksSerializeSameUser(t *testing.T) {
	locks := newUserLocks()

	var (
		wg      sync.WaitGroup
		counter int
	)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("42")
			defer unlock()
			v := counter
			time.Sleep(time.Microsecond)
			counter = v + 1
		}()
	}
	wg.Wait()

	if counter != 100 {
		t.Fatalf("counter = %d, want 100", counter)
	}
	if n := locks.size(); n != 0 {
		t.Fatalf("%d lock entries left behind", n)
	}
}

func TestUserLocksDoNotBlockOtherUsers(t *testing.T) {
	locks := newUserLocks()
	unlockA := locks.lock("a")
	defer unlockA()

	done := make(chan struct{})
	go func() {
		unlock := locks.lock("b")
		unlock()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("lock for b blocked on a")
	}
}

func TestLockCanBeDisabled(t *testing.T) {
	s := NewTaskService(nil, nopLogger(), WithPerUserSerialization(false))
	first := s.Lock("42")
	second := s.Lock("42")
	first()
	second()
	if s.locks.size() != 0 {
		t.Fatal("disabled serialization should not register locks")
	}
}
