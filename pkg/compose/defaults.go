package compose

import (
	"strings"
	"sync/atomic"
)

// Defaults fill in fields the user left blank.
type Defaults struct {
	Model  string `json:"model"`
	System string `json:"system,omitempty"`
}

// Apply returns in with a blank model or system prompt replaced by the
// default. Anything the user typed wins.
func (d Defaults) Apply(in Input) Input {
	if strings.TrimSpace(in.Model) == "" {
		in.Model = d.Model
	}
	if strings.TrimSpace(in.System) == "" {
		in.System = d.System
	}
	return in
}

// DefaultsHolder shares Defaults between request handlers and a config
// watcher that may replace them at any time.
type DefaultsHolder struct {
	v atomic.Pointer[Defaults]
}

// NewDefaultsHolder returns a holder initialised with d.
func NewDefaultsHolder(d Defaults) *DefaultsHolder {
	h := &DefaultsHolder{}
	h.Store(d)
	return h
}

// Load returns the current defaults. A nil holder has none.
func (h *DefaultsHolder) Load() Defaults {
	if h == nil {
		return Defaults{}
	}
	if d := h.v.Load(); d != nil {
		return *d
	}
	return Defaults{}
}

// Store replaces the current defaults.
func (h *DefaultsHolder) Store(d Defaults) {
	h.v.Store(&d)
}
