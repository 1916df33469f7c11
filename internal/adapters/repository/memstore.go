package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/collegeapi/internal/domain/college"
	"github.com/okian/collegeapi/pkg/metrics"
)

// MemoryStore is a process-lifetime Store. Each user's collection has its own
// lock so the duplicate check and append happen together.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[string]*collection

	metricsUpdateInterval time.Duration
	stopChan              chan struct{}
	stopOnce              sync.Once
	wg                    sync.WaitGroup
}

type collection struct {
	mu      sync.Mutex
	records []college.SavedCollege
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store. The gauge updater runs until ctx
// is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		users:                 make(map[string]*collection),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metricsUpdateInterval > 0 {
		s.startMetricsUpdater(ctx)
	}
	return s
}

// Close stops the background updater.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// collection returns the user's collection, creating it lazily when create is set.
func (s *MemoryStore) collection(userID string, create bool) *collection {
	s.mu.RLock()
	c := s.users[userID]
	s.mu.RUnlock()
	if c != nil || !create {
		return c
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if c = s.users[userID]; c == nil {
		c = &collection{}
		s.users[userID] = c
	}
	return c
}

// Insert implements Store.Insert.
func (s *MemoryStore) Insert(ctx context.Context, userID string, rec college.SavedCollege) (college.SavedCollege, bool, error) {
	if userID == "" {
		return college.SavedCollege{}, false, ErrMissingUser
	}
	if err := ctx.Err(); err != nil {
		return college.SavedCollege{}, false, err
	}

	c := s.collection(userID, true)
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, existing := range c.records {
		if existing.SameCollege(rec) {
			return clone(existing), false, nil
		}
	}
	c.records = append(c.records, clone(rec))
	return clone(rec), true, nil
}

// List implements Store.List.
func (s *MemoryStore) List(ctx context.Context, userID string) ([]college.SavedCollege, error) {
	if userID == "" {
		return nil, ErrMissingUser
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := []college.SavedCollege{}
	c := s.collection(userID, false)
	if c == nil {
		return out, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		out = append(out, clone(r))
	}
	return out, nil
}

// Delete implements Store.Delete.
func (s *MemoryStore) Delete(ctx context.Context, userID, id string) error {
	if userID == "" {
		return ErrMissingUser
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	c := s.collection(userID, false)
	if c == nil {
		return ErrNotFound
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.records {
		if r.ID == id {
			c.records = append(c.records[:i:i], c.records[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// Totals reports how many users and records the store holds.
func (s *MemoryStore) Totals() (users, records int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.users {
		c.mu.Lock()
		records += len(c.records)
		c.mu.Unlock()
	}
	return len(s.users), records
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoreTotals(s.Totals())
			}
		}
	}()
}

// clone copies rec so callers never share pointers with stored records.
func clone(rec college.SavedCollege) college.SavedCollege {
	out := rec
	out.City = cloneString(rec.City)
	out.State = cloneString(rec.State)
	out.SchoolURL = cloneString(rec.SchoolURL)
	out.CollegeExternalID = cloneInt(rec.CollegeExternalID)
	out.StudentSize = cloneInt(rec.StudentSize)
	out.TuitionInState = cloneInt(rec.TuitionInState)
	out.TuitionOutOfState = cloneInt(rec.TuitionOutOfState)
	if rec.AdmissionRate != nil {
		v := *rec.AdmissionRate
		out.AdmissionRate = &v
	}
	return out
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneInt(p *int64) *int64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
