package notify

import (
	"sync"
	"time"

	"weddinghub/internal/common"
)

// Store is the append-only, deduplicated collection of notifications for one
// session. Live entries are kept in strict arrival order, newest first; the
// transport may redeliver on reconnect, so every insert is idempotent by id.
type Store struct {
	mu   sync.RWMutex
	live []common.Notification
	seen map[uint64]struct{}
}

func NewStore() *Store {
	return &Store{
		seen: make(map[uint64]struct{}),
	}
}

// Prepend inserts a live notification at the head of the list. If the id has
// already been seen this is a no-op and Prepend reports false.
func (s *Store) Prepend(n common.Notification) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, dup := s.seen[n.ID]; dup {
		return false
	}
	s.seen[n.ID] = struct{}{}
	s.live = append([]common.Notification{n}, s.live...)
	return true
}

// Live returns a copy of the live list, newest first.
func (s *Store) Live() []common.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]common.Notification, len(s.live))
	copy(out, s.live)
	return out
}

// Merged returns the live list followed by the historical entries that the
// live feed has not already delivered.
func (s *Store) Merged(historical []common.Notification) []common.Notification {
	return Merge(s.Live(), historical)
}

// MarkRead reflects a successful external mark-read into the session copy.
// Unknown ids are ignored; the server remains the source of truth.
func (s *Store) MarkRead(id uint64, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.live {
		if s.live[i].ID == id {
			s.live[i].IsRead = true
			s.live[i].ReadAt = &at
			return true
		}
	}
	return false
}

// Merge concatenates live with historical, dropping historical entries whose
// id already appears in live. The live feed is authoritative for session
// recency, so historical entries always sort after live ones regardless of
// their own timestamps. Both inputs are assumed internally deduplicated.
func Merge(live, historical []common.Notification) []common.Notification {
	inLive := make(map[uint64]struct{}, len(live))
	for _, n := range live {
		inLive[n.ID] = struct{}{}
	}

	out := make([]common.Notification, 0, len(live)+len(historical))
	out = append(out, live...)
	for _, n := range historical {
		if _, dup := inLive[n.ID]; dup {
			continue
		}
		out = append(out, n)
	}
	return out
}
