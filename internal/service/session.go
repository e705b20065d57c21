package service

import (
	"time"

	"github.com/bluele/gcache"

	"github.com/joeblew999/plat-stations/internal/filter"
)

// SessionConfig bounds the session store.
type SessionConfig struct {
	TTL time.Duration
	Max int
}

// SessionService holds the confirmed filter selection of every browser
// session. Entries expire after TTL of inactivity and the least recently used
// are evicted beyond Max.
type SessionService struct {
	cache    gcache.Cache
	defaults filter.Selection
	bus      *EventBus
}

// NewSessionService creates a session store whose new sessions start at
// defaults. bus may be nil.
func NewSessionService(cfg SessionConfig, defaults filter.Selection, bus *EventBus) *SessionService {
	if cfg.Max <= 0 {
		cfg.Max = 1000
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 12 * time.Hour
	}
	return &SessionService{
		cache: gcache.New(cfg.Max).
			LRU().
			Expiration(cfg.TTL).
			Build(),
		defaults: defaults,
		bus:      bus,
	}
}

// Get returns the applied selection of a session, starting it when unknown.
// Every read restarts the session's TTL.
func (s *SessionService) Get(id string) filter.Selection {
	if v, err := s.cache.Get(id); err == nil {
		sel := v.(filter.Selection)
		s.cache.Set(id, sel)
		return sel
	}
	sel := s.defaults
	s.cache.Set(id, sel)
	return sel
}

// Apply confirms candidate for a session. On ErrNoTypes the previous
// selection is kept and returned alongside the error.
func (s *SessionService) Apply(id string, candidate filter.Selection) (filter.Selection, error) {
	return s.ApplyFrom(id, "", candidate)
}

// ApplyFrom is Apply on behalf of one browser tab; the published event names
// origin so that tab can skip its own echo.
func (s *SessionService) ApplyFrom(id, origin string, candidate filter.Selection) (filter.Selection, error) {
	current := s.Get(id)
	next, err := filter.Confirm(current, candidate)
	if err != nil {
		return current, err
	}
	if err := s.cache.Set(id, next); err != nil {
		return current, err
	}
	s.publish(Event{Session: id, Origin: origin, Action: ActionApplied, Selection: next})
	return next, nil
}

// Reset returns a session to the default selection.
func (s *SessionService) Reset(id string) filter.Selection {
	return s.ResetFrom(id, "")
}

// ResetFrom is Reset on behalf of one browser tab.
func (s *SessionService) ResetFrom(id, origin string) filter.Selection {
	s.cache.Remove(id)
	sel := s.Get(id)
	s.publish(Event{Session: id, Origin: origin, Action: ActionReset, Selection: sel})
	return sel
}

// Has reports whether a session is live.
func (s *SessionService) Has(id string) bool {
	_, err := s.cache.GetIFPresent(id)
	return err == nil
}

// Len returns the number of live sessions.
func (s *SessionService) Len() int {
	return s.cache.Len(true)
}

// Bus returns the bus filter events are published on.
func (s *SessionService) Bus() *EventBus { return s.bus }

func (s *SessionService) publish(e Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}
