// Package manager owns the lifecycle of rule groups: validating them,
// persisting them with their collection, and decoding them for evaluation.
package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/rules"
	"curator-hq/curator/pkg/rules/types"
	"curator-hq/curator/pkg/rules/validator"
	"curator-hq/curator/pkg/store"
)

// GroupSpec describes a rule group and the collection it fills.
type GroupSpec struct {
	Name        string
	Description string
	LibraryID   string
	Kind        media.Kind
	Active      bool

	// DeleteAfterDays is the retention window of the collection; 0 keeps
	// items forever.
	DeleteAfterDays int

	// ManagerAction defaults to store.ManagerDelete.
	ManagerAction store.ManagerAction

	Rules []rules.Definition
}

// ValidationError is returned when a group is rejected by the validator.
// Nothing is persisted.
type ValidationError struct {
	Group  string
	Reason string
}

// Error returns the error message.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("rule group %q: %s", e.Group, e.Reason)
}

// Manager validates and persists rule groups.
type Manager struct {
	store     store.Store
	table     *types.Table
	validator *validator.Validator
	logger    *slog.Logger
}

// New creates a manager. A nil table uses types.NewTable.
func New(st store.Store, table *types.Table) *Manager {
	if table == nil {
		table = types.NewTable()
	}
	return &Manager{
		store:     st,
		table:     table,
		validator: validator.New(table),
		logger:    slog.Default().With("component", "rules.manager"),
	}
}

// Validator returns the validator used for saved groups.
func (m *Manager) Validator() *validator.Validator {
	return m.validator
}

// Check validates a group spec without persisting it.
func (m *Manager) Check(spec GroupSpec) error {
	if spec.Name == "" {
		return &ValidationError{Group: spec.Name, Reason: "name is required"}
	}
	if spec.LibraryID == "" {
		return &ValidationError{Group: spec.Name, Reason: "library is required"}
	}
	if spec.Kind != media.KindMovie && spec.Kind != media.KindShow {
		return &ValidationError{Group: spec.Name, Reason: fmt.Sprintf("kind must be %q or %q", media.KindMovie, media.KindShow)}
	}
	if spec.DeleteAfterDays < 0 {
		return &ValidationError{Group: spec.Name, Reason: "deleteAfterDays must not be negative"}
	}
	if spec.ManagerAction != "" && !spec.ManagerAction.Valid() {
		return &ValidationError{Group: spec.Name, Reason: fmt.Sprintf("unknown manager action %q", spec.ManagerAction)}
	}
	if res := m.validator.ValidateGroup(spec.Rules); !res.Valid {
		return &ValidationError{Group: spec.Name, Reason: res.Reason}
	}
	return nil
}

// SaveGroup validates spec and creates or replaces the group of that name.
// A new group gets a new collection; an existing one keeps its collection
// and the collection settings are updated.
func (m *Manager) SaveGroup(ctx context.Context, spec GroupSpec) (*store.RuleGroup, error) {
	if err := m.Check(spec); err != nil {
		return nil, err
	}
	action := spec.ManagerAction
	if action == "" {
		action = store.ManagerDelete
	}

	stored := make([]store.Rule, len(spec.Rules))
	for i, d := range spec.Rules {
		doc, err := rules.Marshal(d)
		if err != nil {
			return nil, err
		}
		stored[i] = store.Rule{Section: d.Section, RuleJSON: doc}
	}

	existing, err := m.store.GetRuleGroupByName(ctx, spec.Name)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return m.createGroup(ctx, spec, action, stored)
	case err != nil:
		return nil, fmt.Errorf("loading rule group %q: %w", spec.Name, err)
	}

	coll, err := m.store.GetCollection(ctx, existing.CollectionID)
	if err != nil {
		return nil, fmt.Errorf("loading collection of rule group %q: %w", spec.Name, err)
	}
	coll.LibraryID = spec.LibraryID
	coll.Type = spec.Kind
	coll.IsActive = spec.Active
	coll.DeleteAfterDays = spec.DeleteAfterDays
	coll.ManagerAction = action
	if err := m.store.UpdateCollection(ctx, coll); err != nil {
		return nil, fmt.Errorf("updating collection of rule group %q: %w", spec.Name, err)
	}

	existing.Description = spec.Description
	existing.LibraryID = spec.LibraryID
	existing.IsActive = spec.Active
	existing.Rules = stored
	if err := m.store.UpdateRuleGroup(ctx, existing); err != nil {
		return nil, fmt.Errorf("updating rule group %q: %w", spec.Name, err)
	}
	m.logger.Info("rule group updated", "group", spec.Name, "rules", len(stored))
	return existing, nil
}

func (m *Manager) createGroup(ctx context.Context, spec GroupSpec, action store.ManagerAction, stored []store.Rule) (*store.RuleGroup, error) {
	coll := &store.Collection{
		Title:           spec.Name,
		LibraryID:       spec.LibraryID,
		Type:            spec.Kind,
		IsActive:        spec.Active,
		DeleteAfterDays: spec.DeleteAfterDays,
		ManagerAction:   action,
	}
	if err := m.store.CreateCollection(ctx, coll); err != nil {
		return nil, fmt.Errorf("creating collection for rule group %q: %w", spec.Name, err)
	}

	g := &store.RuleGroup{
		Name:         spec.Name,
		Description:  spec.Description,
		LibraryID:    spec.LibraryID,
		IsActive:     spec.Active,
		CollectionID: coll.ID,
		Rules:        stored,
	}
	if err := m.store.CreateRuleGroup(ctx, g); err != nil {
		if derr := m.store.DeleteCollection(ctx, coll.ID); derr != nil {
			m.logger.Warn("orphaned collection left behind", "collection_id", coll.ID, "error", derr)
		}
		return nil, fmt.Errorf("creating rule group %q: %w", spec.Name, err)
	}
	m.logger.Info("rule group created", "group", spec.Name, "collection_id", coll.ID, "rules", len(stored))
	return g, nil
}

// DeleteGroup removes a rule group together with its collection and the
// collection's tracked items.
func (m *Manager) DeleteGroup(ctx context.Context, id int64) error {
	g, err := m.store.GetRuleGroup(ctx, id)
	if err != nil {
		return fmt.Errorf("loading rule group %d: %w", id, err)
	}
	if err := m.store.DeleteRuleGroup(ctx, id); err != nil {
		return fmt.Errorf("deleting rule group %d: %w", id, err)
	}
	if err := m.store.DeleteCollection(ctx, g.CollectionID); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("deleting collection %d: %w", g.CollectionID, err)
	}
	m.logger.Info("rule group deleted", "group", g.Name)
	return nil
}

// Groups lists rule groups ordered by id.
func (m *Manager) Groups(ctx context.Context, activeOnly bool) ([]store.RuleGroup, error) {
	groups, err := m.store.ListRuleGroups(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("listing rule groups: %w", err)
	}
	return groups, nil
}

// Definitions decodes the stored rules of a group in order.
func (m *Manager) Definitions(g store.RuleGroup) ([]rules.Definition, error) {
	defs := make([]rules.Definition, 0, len(g.Rules))
	for _, r := range g.Rules {
		d, err := rules.ParseStored(r.ID, r.RuleJSON)
		if err != nil {
			return nil, err
		}
		defs = append(defs, d)
	}
	return defs, nil
}
