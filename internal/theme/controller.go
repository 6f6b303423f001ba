package theme

import (
	"sync"

	"saturn-terminal/internal/prefs"
)

// PreferenceKey is the persisted key for the local display mode.
const PreferenceKey = "site-theme"

// UserPreferenceKey namespaces the preference for one SSH user.
func UserPreferenceKey(user string) string {
	return PreferenceKey + "/" + user
}

// Controller owns the light/dark state for one viewer and mirrors it into
// a preference store. It never fails: storage errors are the store's
// concern (see prefs.Resilient).
type Controller struct {
	store prefs.Store
	key   string

	mu   sync.Mutex
	mode Mode
}

// NewController reads the persisted preference once. A missing value, any
// value other than "light", or a read error all mean dark.
func NewController(store prefs.Store, key string) *Controller {
	if store == nil {
		store = prefs.NewMemoryStore()
	}
	if key == "" {
		key = PreferenceKey
	}
	c := &Controller{store: store, key: key, mode: ModeDark}
	if v, ok, err := store.Load(key); err == nil && ok && Mode(v) == ModeLight {
		c.mode = ModeLight
	}
	return c
}

// Mode returns the current display mode.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Light reports whether light mode is active.
func (c *Controller) Light() bool {
	return c.Mode() == ModeLight
}

// Label names the action the toggle performs, i.e. the target mode.
func (c *Controller) Label() string {
	return LabelFor(c.Mode())
}

// LabelFor returns the toggle label shown while in mode.
func LabelFor(mode Mode) string {
	return string(mode.Opposite()) + " mode"
}

// Toggle inverts the mode, persists it and returns the new mode.
func (c *Controller) Toggle() Mode {
	c.mu.Lock()
	c.mode = c.mode.Opposite()
	mode := c.mode
	c.mu.Unlock()

	_ = c.store.Save(c.key, string(mode))
	return mode
}
