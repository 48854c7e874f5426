package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// PropertyRef addresses one property of one application.
type PropertyRef struct {
	App  ApplicationID
	Prop int
}

// String formats the reference as "app.property-id".
func (r PropertyRef) String() string {
	return fmt.Sprintf("%s.%d", r.App, r.Prop)
}

// MarshalJSON encodes the reference as a two-element array [app, prop].
func (r PropertyRef) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{int(r.App), r.Prop})
}

// UnmarshalJSON decodes a two-element array whose members may be numbers or
// numeric strings.
func (r *PropertyRef) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("property reference: %w", err)
	}
	if len(raw) != 2 {
		return fmt.Errorf("property reference: expected [app, property], got %d elements", len(raw))
	}
	var ids [2]int
	for i, elem := range raw {
		s, err := enumToken(elem)
		if err != nil {
			return fmt.Errorf("property reference: %w", err)
		}
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("property reference: %q is not a number", s)
		}
		ids[i] = n
	}
	r.App = ApplicationID(ids[0])
	r.Prop = ids[1]
	return nil
}

// Table is the immutable application and property catalog. It is built once
// with NewTable and shared by reference.
type Table struct {
	apps  []Application
	index map[PropertyRef]Property
	names map[string]PropertyRef
}

// NewTable builds the catalog of every supported application.
func NewTable() *Table {
	apps := defaultApplications()
	t := &Table{
		apps:  apps,
		index: make(map[PropertyRef]Property),
		names: make(map[string]PropertyRef),
	}
	for _, app := range apps {
		for _, prop := range app.Properties {
			ref := PropertyRef{App: app.ID, Prop: prop.ID}
			t.index[ref] = prop
			t.names[qualifiedName(app.ID, prop.Name)] = ref
		}
	}
	return t
}

// Applications returns a copy of the catalog.
func (t *Table) Applications() []Application {
	out := make([]Application, len(t.apps))
	for i, app := range t.apps {
		app.Properties = append([]Property(nil), app.Properties...)
		out[i] = app
	}
	return out
}

// Application returns the application with the given id.
func (t *Table) Application(id ApplicationID) (Application, bool) {
	for _, app := range t.apps {
		if app.ID == id {
			return app, true
		}
	}
	return Application{}, false
}

// Property returns the property a reference points at.
func (t *Table) Property(ref PropertyRef) (Property, bool) {
	p, ok := t.index[ref]
	return p, ok
}

// Lookup resolves a "app.propertyName" reference such as "plex.addDate".
// Matching is case-insensitive.
func (t *Table) Lookup(name string) (PropertyRef, bool) {
	app, prop, ok := strings.Cut(name, ".")
	if !ok {
		return PropertyRef{}, false
	}
	ref, ok := t.names[strings.ToLower(app)+"."+strings.ToLower(prop)]
	return ref, ok
}

// Name returns the "app.propertyName" form of a reference.
func (t *Table) Name(ref PropertyRef) string {
	p, ok := t.index[ref]
	if !ok {
		return ref.String()
	}
	return ref.App.String() + "." + p.Name
}

func qualifiedName(app ApplicationID, prop string) string {
	return app.String() + "." + strings.ToLower(prop)
}
