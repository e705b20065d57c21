package service

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/joeblew999/plat-stations/internal/filter"
)

func TestSessionDefaults(t *testing.T) {
	defaults := filter.Default([]string{"ARG", "AWS"})
	s := NewSessionService(SessionConfig{TTL: time.Minute, Max: 10}, defaults, nil)

	if s.Has("a") {
		t.Fatal("unknown session reported live")
	}
	if got := s.Get("a"); !reflect.DeepEqual(got, defaults) {
		t.Errorf("Get=%+v, want defaults", got)
	}
	if !s.Has("a") || s.Len() != 1 {
		t.Errorf("Has=%v Len=%d", s.Has("a"), s.Len())
	}
}

func TestSessionApply(t *testing.T) {
	bus := NewEventBus()
	events := bus.Subscribe()
	defer bus.Unsubscribe(events)

	defaults := filter.Default([]string{"ARG", "AWS"})
	s := NewSessionService(SessionConfig{}, defaults, bus)

	next, err := s.Apply("a", filter.Selection{Types: []string{"AWS"}, Province: "BALI"})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	want := filter.Selection{Types: []string{"AWS"}, Province: "BALI", Regency: filter.All, District: filter.All}
	if !reflect.DeepEqual(next, want) || !reflect.DeepEqual(s.Get("a"), want) {
		t.Errorf("applied=%+v stored=%+v", next, s.Get("a"))
	}

	select {
	case e := <-events:
		if e.Session != "a" || e.Action != ActionApplied || e.Selection.Province != "BALI" {
			t.Errorf("event=%+v", e)
		}
	default:
		t.Fatal("no event published")
	}

	// sessions are independent
	if got := s.Get("b"); !reflect.DeepEqual(got, defaults) {
		t.Errorf("session b=%+v", got)
	}
}

func TestSessionApplyRejectsEmptyTypes(t *testing.T) {
	bus := NewEventBus()
	events := bus.Subscribe()
	defer bus.Unsubscribe(events)

	s := NewSessionService(SessionConfig{}, filter.Default([]string{"ARG"}), bus)
	prev, _ := s.Apply("a", filter.Selection{Types: []string{"ARG"}, Province: "BALI"})
	<-events

	got, err := s.Apply("a", filter.Selection{Province: "JAWA BARAT"})
	if !errors.Is(err, filter.ErrNoTypes) {
		t.Fatalf("err=%v, want ErrNoTypes", err)
	}
	if !reflect.DeepEqual(got, prev) || !reflect.DeepEqual(s.Get("a"), prev) {
		t.Errorf("state changed: got=%+v stored=%+v", got, s.Get("a"))
	}
	select {
	case e := <-events:
		t.Errorf("unexpected event %+v", e)
	default:
	}
}

func TestSessionReset(t *testing.T) {
	defaults := filter.Default([]string{"ARG"})
	s := NewSessionService(SessionConfig{}, defaults, nil)
	s.Apply("a", filter.Selection{Types: []string{"ARG"}, Province: "BALI"})

	if got := s.Reset("a"); !reflect.DeepEqual(got, defaults) {
		t.Errorf("Reset=%+v", got)
	}
}

func TestSessionEviction(t *testing.T) {
	s := NewSessionService(SessionConfig{Max: 2}, filter.Default(nil), nil)
	s.Get("a")
	s.Get("b")
	s.Get("c")
	if s.Len() > 2 {
		t.Errorf("Len=%d, want at most 2", s.Len())
	}
	if s.Has("a") {
		t.Error("least recently used session not evicted")
	}
}

func TestSessionExpiry(t *testing.T) {
	s := NewSessionService(SessionConfig{TTL: 20 * time.Millisecond}, filter.Default(nil), nil)
	s.Get("a")
	time.Sleep(50 * time.Millisecond)
	if s.Has("a") {
		t.Error("session outlived its TTL")
	}
}

func TestSessionKeptWhileRead(t *testing.T) {
	ttl := 150 * time.Millisecond
	s := NewSessionService(SessionConfig{TTL: ttl}, filter.Default([]string{"ARG", "AWS"}), nil)
	want, err := s.Apply("a", filter.Selection{Types: []string{"AWS"}, Province: "BALI"})
	if err != nil {
		t.Fatal(err)
	}

	// each read lands inside the TTL; together they outlast it three times
	for elapsed := time.Duration(0); elapsed < 3*ttl; elapsed += ttl / 3 {
		time.Sleep(ttl / 3)
		if got := s.Get("a"); !reflect.DeepEqual(got, want) {
			t.Fatalf("after %v: Get=%+v, want %+v", elapsed+ttl/3, got, want)
		}
	}
}
