// Package hookregistry stores and indexes registered hooks: by id, by
// event type, and by tag.
package hookregistry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/hookguard/hookguard/pkg/hooks/hookerrors"
	"github.com/hookguard/hookguard/pkg/hooks/hookmodel"
)

// NewHookID returns a fresh random hook id.
func NewHookID() hookmodel.HookID {
	return hookmodel.HookID(uuid.NewString())
}

// HookIDFromName derives a stable, readable hook id from a display name,
// suffixed with a short random id to avoid collisions between hooks with
// the same name.
func HookIDFromName(name string) hookmodel.HookID {
	return hookmodel.HookID(slug.Make(name) + "-" + uuid.NewString()[:8])
}

// Stats summarizes the registry's current contents.
type Stats struct {
	TotalHooks      int `json:"total_hooks"`
	EnabledHooks    int `json:"enabled_hooks"`
	EventsMonitored int `json:"events_monitored"`
	UniqueTags      int `json:"unique_tags"`
}

// Registry is the central store of registered hooks, with secondary
// indexes by event type and tag kept in sync with the primary map.
//
// eventIndex preserves registration order per event type: FindByEvent's
// tie-break for equal-priority hooks is insertion order, which a map
// iteration (randomized per run) cannot provide.
type Registry struct {
	mu         sync.RWMutex
	hooks      map[hookmodel.HookID]*hookmodel.Hook
	eventIndex map[hookmodel.EventType][]hookmodel.HookID
	tagIndex   map[string]map[hookmodel.HookID]struct{}
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		hooks:      make(map[hookmodel.HookID]*hookmodel.Hook),
		eventIndex: make(map[hookmodel.EventType][]hookmodel.HookID),
		tagIndex:   make(map[string]map[hookmodel.HookID]struct{}),
	}
}

// Register adds hook to the registry, stored as a deep-copied snapshot so
// later mutation of the caller's value can't reach the stored one.
func (r *Registry) Register(hook *hookmodel.Hook) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.hooks[hook.ID]; exists {
		return hookerrors.New("register", hookerrors.KindValidation, hookerrors.ErrDuplicateID).WithID(string(hook.ID))
	}

	stored := hook.Clone()
	r.hooks[stored.ID] = stored

	for _, event := range stored.Events {
		r.indexEvent(event, stored.ID)
	}
	for _, tag := range stored.Metadata.Tags {
		r.indexTag(tag, stored.ID)
	}

	return nil
}

func (r *Registry) indexEvent(event hookmodel.EventType, id hookmodel.HookID) {
	r.eventIndex[event] = append(r.eventIndex[event], id)
}

func (r *Registry) indexTag(tag string, id hookmodel.HookID) {
	set, ok := r.tagIndex[tag]
	if !ok {
		set = make(map[hookmodel.HookID]struct{})
		r.tagIndex[tag] = set
	}
	set[id] = struct{}{}
}

// Unregister removes a hook and prunes it from every secondary index.
func (r *Registry) Unregister(id hookmodel.HookID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hook, ok := r.hooks[id]
	if !ok {
		return hookerrors.New("unregister", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(string(id))
	}
	delete(r.hooks, id)

	for _, event := range hook.Events {
		ids, ok := r.eventIndex[event]
		if !ok {
			continue
		}
		for i, existing := range ids {
			if existing == id {
				ids = append(ids[:i], ids[i+1:]...)
				break
			}
		}
		if len(ids) == 0 {
			delete(r.eventIndex, event)
		} else {
			r.eventIndex[event] = ids
		}
	}
	for _, tag := range hook.Metadata.Tags {
		if set, ok := r.tagIndex[tag]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(r.tagIndex, tag)
			}
		}
	}

	return nil
}

// Get returns a copy of the hook with the given id.
func (r *Registry) Get(id hookmodel.HookID) (*hookmodel.Hook, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	hook, ok := r.hooks[id]
	if !ok {
		return nil, false
	}
	return hook.Clone(), true
}

// FindByEvent returns every enabled hook listening for event.
func (r *Registry) FindByEvent(event hookmodel.EventType) []*hookmodel.Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.eventIndex[event]
	if !ok {
		return nil
	}
	out := make([]*hookmodel.Hook, 0, len(ids))
	for _, id := range ids {
		if hook, ok := r.hooks[id]; ok && hook.Enabled {
			out = append(out, hook.Clone())
		}
	}
	return out
}

// FindByTag returns every hook (enabled or not) carrying tag.
func (r *Registry) FindByTag(tag string) []*hookmodel.Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids, ok := r.tagIndex[tag]
	if !ok {
		return nil
	}
	out := make([]*hookmodel.Hook, 0, len(ids))
	for id := range ids {
		if hook, ok := r.hooks[id]; ok {
			out = append(out, hook.Clone())
		}
	}
	return out
}

// ListAll returns every registered hook.
func (r *Registry) ListAll() []*hookmodel.Hook {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*hookmodel.Hook, 0, len(r.hooks))
	for _, hook := range r.hooks {
		out = append(out, hook.Clone())
	}
	return out
}

// SetEnabled toggles a hook's enabled flag, stamping updated_at.
func (r *Registry) SetEnabled(id hookmodel.HookID, enabled bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hook, ok := r.hooks[id]
	if !ok {
		return hookerrors.New("set_enabled", hookerrors.KindValidation, hookerrors.ErrNotFound).WithID(string(id))
	}
	updated := hook.Clone()
	updated.Enabled = enabled
	updated.Metadata.UpdatedAt = time.Now().UTC()
	r.hooks[id] = updated
	return nil
}

// ClearAll removes every hook and index entry.
func (r *Registry) ClearAll() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.hooks = make(map[hookmodel.HookID]*hookmodel.Hook)
	r.eventIndex = make(map[hookmodel.EventType][]hookmodel.HookID)
	r.tagIndex = make(map[string]map[hookmodel.HookID]struct{})
}

// Stats reports the registry's current size and index shape.
func (r *Registry) Stats() Stats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	enabled := 0
	for _, hook := range r.hooks {
		if hook.Enabled {
			enabled++
		}
	}

	return Stats{
		TotalHooks:      len(r.hooks),
		EnabledHooks:    enabled,
		EventsMonitored: len(r.eventIndex),
		UniqueTags:      len(r.tagIndex),
	}
}
