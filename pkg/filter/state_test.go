package filter_test

import (
	"sync"
	"testing"

	"github.com/Pazar/pazar_sdk_go/pkg/filter"
)

func TestStateToggleNotifies(t *testing.T) {
	s := filter.NewState()

	var got []filter.Criteria
	cancel := s.Subscribe(func(c filter.Criteria) {
		got = append(got, c)
	})
	defer cancel()

	snap := s.Toggle("home")
	if !snap.Has("home") {
		t.Fatalf("snapshot missing token: %v", snap)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(got))
	}
	if !got[0].Equal(snap) {
		t.Fatalf("subscriber observed %v, want %v", got[0], snap)
	}
}

func TestStateNoChangeNoNotification(t *testing.T) {
	s := filter.NewState()
	s.SetSearch("lamp")

	notifications := 0
	cancel := s.Subscribe(func(filter.Criteria) {
		notifications++
	})
	defer cancel()

	s.SetSearch("lamp")
	s.Toggle("")
	if notifications != 0 {
		t.Fatalf("expected no notifications, got %d", notifications)
	}

	s.SetSearch("chair")
	if notifications != 1 {
		t.Fatalf("expected 1 notification after real change, got %d", notifications)
	}
}

func TestStateClearAtomic(t *testing.T) {
	s := filter.NewState()
	s.Toggle("home")
	s.Toggle("vintage")
	s.SetSearch("lamp")

	var got []filter.Criteria
	cancel := s.Subscribe(func(c filter.Criteria) {
		got = append(got, c)
	})
	defer cancel()

	snap := s.Clear()
	if !snap.Empty() {
		t.Fatalf("clear left residue: %v", snap)
	}
	if len(got) != 1 {
		t.Fatalf("clear must notify exactly once, got %d notifications", len(got))
	}
	if !got[0].Empty() {
		t.Fatalf("subscriber observed partial clear: %v", got[0])
	}
}

func TestStateClearWhenEmptyNoNotification(t *testing.T) {
	s := filter.NewState()
	notifications := 0
	cancel := s.Subscribe(func(filter.Criteria) {
		notifications++
	})
	defer cancel()

	s.Clear()
	if notifications != 0 {
		t.Fatalf("clearing empty state must not notify, got %d", notifications)
	}
}

func TestStateReplace(t *testing.T) {
	s := filter.NewState()
	saved := filter.NewCriteria([]string{"office"}, "desk")

	snap := s.Replace(saved)
	if !snap.Equal(saved) {
		t.Fatalf("replace snapshot mismatch: %v", snap)
	}
	if !s.Current().Equal(saved) {
		t.Fatalf("current mismatch after replace: %v", s.Current())
	}
}

func TestStateCancelStopsNotifications(t *testing.T) {
	s := filter.NewState()
	notifications := 0
	cancel := s.Subscribe(func(filter.Criteria) {
		notifications++
	})

	s.Toggle("home")
	cancel()
	cancel()
	s.Toggle("office")

	if notifications != 1 {
		t.Fatalf("expected 1 notification before cancel, got %d", notifications)
	}
}

func TestStateConcurrentToggles(t *testing.T) {
	s := filter.NewState()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Toggle("contended")
			}
		}()
	}
	wg.Wait()

	// 800 toggles in total, so the token must be absent again.
	if s.Current().Has("contended") {
		t.Fatalf("even toggle count left token active: %v", s.Current())
	}
}
