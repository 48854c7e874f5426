// Package sources turns property references into concrete values for a
// library item. Each application has one Resolver; the Dispatcher routes a
// reference to the resolver of its application.
//
// Values are normalized to a small set of Go types so the evaluator can
// compare them without knowing where they came from:
//
//	NUMBER        float64
//	DATE          time.Time
//	TEXT, USER    string
//	*_GROUP       []float64, []time.Time or []string
//
// A resolver that cannot produce a value (missing cross-reference, failed
// lookup, property not applicable to the item's kind) reports absent. It never
// returns an error.
package sources

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/rules/types"
)

// Resolver computes property values of one application.
type Resolver interface {
	Resolve(ctx context.Context, propertyID int, item media.Item) (any, bool)
}

// Resetter is implemented by resolvers that memoize lookups between calls.
type Resetter interface {
	Reset()
}

// Dispatcher routes property references to per-application resolvers.
type Dispatcher struct {
	mu        sync.RWMutex
	resolvers map[types.ApplicationID]Resolver
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over the given resolvers.
func NewDispatcher(resolvers map[types.ApplicationID]Resolver) *Dispatcher {
	d := &Dispatcher{
		resolvers: make(map[types.ApplicationID]Resolver, len(resolvers)),
		logger:    slog.Default().With("component", "rules.sources"),
	}
	for app, r := range resolvers {
		d.resolvers[app] = r
	}
	return d
}

// Register adds or replaces the resolver of an application.
func (d *Dispatcher) Register(app types.ApplicationID, r Resolver) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.resolvers[app] = r
}

// Resolve returns the value of ref for item, or false if it is absent.
func (d *Dispatcher) Resolve(ctx context.Context, ref types.PropertyRef, item media.Item) (any, bool) {
	d.mu.RLock()
	r, ok := d.resolvers[ref.App]
	d.mu.RUnlock()
	if !ok {
		d.logger.Debug("no resolver for application", "application", ref.App.String())
		return nil, false
	}
	return r.Resolve(ctx, ref.Prop, item)
}

// Reset drops memoized lookups of every resolver. It is called at the start
// of each evaluation run.
func (d *Dispatcher) Reset() {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for _, r := range d.resolvers {
		if rs, ok := r.(Resetter); ok {
			rs.Reset()
		}
	}
}

func boolNumber(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func dateValue(t time.Time) (any, bool) {
	if t.IsZero() {
		return nil, false
	}
	return t, true
}

func textList(in []string) []string {
	if in == nil {
		return []string{}
	}
	return in
}

const bytesPerGB = 1 << 30
