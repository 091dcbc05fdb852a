package runs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"sync"
	"time"

	"cellsim/internal/model"
	"cellsim/internal/report"
)

// Entry is a finished run kept for later retrieval of its series.
type Entry struct {
	ID        string
	Report    *model.RunReport
	Summary   report.Summary
	Health    report.Health
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Cache is an in-memory, size-bounded TTL store of finished runs. Runs are
// deterministic, so the key is a hash of the inputs and identical requests
// share an entry. It lives only as long as the process.
type Cache struct {
	mu         sync.RWMutex
	store      map[string]*Entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	stop     chan struct{}
	stopOnce sync.Once
}

// New creates a cache. ttl <= 0 disables expiry; maxEntries <= 0 means unbounded.
func New(ttl time.Duration, maxEntries int) *Cache {
	return &Cache{
		store:      make(map[string]*Entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		stop:       make(chan struct{}),
	}
}

// StartCleanup removes expired entries every interval until Close is called.
func (c *Cache) StartCleanup(interval time.Duration) {
	if c == nil || c.ttl <= 0 || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				c.Sweep()
			case <-c.stop:
				return
			}
		}
	}()
}

func (c *Cache) Close() {
	if c == nil {
		return
	}
	c.stopOnce.Do(func() { close(c.stop) })
}

// Get returns a copy of the entry; the caller owns the returned samples.
func (c *Cache) Get(id string) (Entry, bool) {
	if c == nil {
		return Entry{}, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.store[id]
	if !ok || c.expired(e) {
		return Entry{}, false
	}
	return e.clone(), true
}

// Put stores a copy of e under e.ID, evicting the oldest entries beyond the size bound.
func (c *Cache) Put(e Entry) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stored := e.clone()
	stored.CreatedAt = now
	if c.ttl > 0 {
		stored.ExpiresAt = now.Add(c.ttl)
	}
	c.store[e.ID] = &stored

	for c.maxEntries > 0 && len(c.store) > c.maxEntries {
		c.evictOldest()
	}
}

// Sweep drops expired entries.
func (c *Cache) Sweep() {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.store {
		if c.expired(e) {
			delete(c.store, id)
		}
	}
}

func (c *Cache) Len() int {
	if c == nil {
		return 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}

func (c *Cache) expired(e *Entry) bool {
	return !e.ExpiresAt.IsZero() && c.now().After(e.ExpiresAt)
}

func (c *Cache) evictOldest() {
	var oldestID string
	var oldest time.Time
	for id, e := range c.store {
		if oldestID == "" || e.CreatedAt.Before(oldest) {
			oldestID, oldest = id, e.CreatedAt
		}
	}
	delete(c.store, oldestID)
}

func (e Entry) clone() Entry {
	out := e
	if e.Report != nil {
		r := *e.Report
		r.Samples = slices.Clone(e.Report.Samples)
		out.Report = &r
	}
	out.Health.Alerts = slices.Clone(e.Health.Alerts)
	return out
}

// Key derives the run ID from the simulation inputs.
func Key(profile model.CellProfile, spec model.TestSpec, step time.Duration) string {
	raw, _ := json.Marshal(struct {
		Profile model.CellProfile
		Spec    model.TestSpec
		Step    time.Duration
	}{profile, spec, step})
	hash := sha256.Sum256(raw)
	return hex.EncodeToString(hash[:16])
}
