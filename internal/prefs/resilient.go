package prefs

import (
	"sync"

	"go.uber.org/zap"
)

// Resilient wraps a primary store and never fails. The first error from the
// primary switches it permanently to an in-memory copy.
type Resilient struct {
	primary Store
	log     *zap.Logger

	mu       sync.Mutex
	degraded bool
	memory   *MemoryStore
}

// NewResilient wraps primary. A nil primary starts out in memory.
func NewResilient(primary Store, log *zap.Logger) *Resilient {
	if log == nil {
		log = zap.NewNop()
	}
	r := &Resilient{primary: primary, log: log, memory: NewMemoryStore()}
	if primary == nil {
		r.degraded = true
	}
	return r
}

// Degraded reports whether persistence has been abandoned.
func (r *Resilient) Degraded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.degraded
}

func (r *Resilient) Load(key string) (string, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.degraded {
		return r.memory.Load(key)
	}
	v, ok, err := r.primary.Load(key)
	if err != nil {
		r.degradeLocked("load", key, err)
		return r.memory.Load(key)
	}
	if ok {
		_ = r.memory.Save(key, v)
	}
	return v, ok, nil
}

func (r *Resilient) Save(key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	_ = r.memory.Save(key, value)
	if r.degraded {
		return nil
	}
	if err := r.primary.Save(key, value); err != nil {
		r.degradeLocked("save", key, err)
	}
	return nil
}

func (r *Resilient) degradeLocked(op, key string, err error) {
	r.degraded = true
	r.log.Warn("preference storage unavailable, keeping preferences in memory",
		zap.String("event", "prefs_degraded"),
		zap.String("op", op),
		zap.String("key", key),
		zap.Error(err),
	)
}
