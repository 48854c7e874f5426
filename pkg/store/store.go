// Package store persists rule groups, their rules and the collections they
// materialize.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"curator-hq/curator/pkg/media"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// ManagerAction selects what the worker asks the movie/show manager to do
// with an expired item.
type ManagerAction string

const (
	// ManagerDelete removes the item and its files from the manager.
	ManagerDelete ManagerAction = "delete"
	// ManagerUnmonitor keeps the item in the manager but stops monitoring it.
	ManagerUnmonitor ManagerAction = "unmonitor"
)

// Valid reports whether a is a known action.
func (a ManagerAction) Valid() bool {
	return a == ManagerDelete || a == ManagerUnmonitor
}

// RuleGroup is a named, library-scoped ordered list of rules tied to one
// collection.
type RuleGroup struct {
	ID           int64
	Name         string
	Description  string
	LibraryID    string
	IsActive     bool
	CollectionID int64
	Rules        []Rule
	CreatedAt    time.Time
}

// Rule is a persisted rule document. RuleJSON is parsed at evaluation time.
type Rule struct {
	ID       int64
	GroupID  int64
	Section  int
	RuleJSON string
}

// Collection is the materialized result of evaluating a rule group.
type Collection struct {
	ID        int64
	Title     string
	LibraryID string
	Type      media.Kind
	IsActive  bool

	// DeleteAfterDays is the retention window; 0 disables removal.
	DeleteAfterDays int

	// LibraryCollectionID is the library server's id for the mirrored
	// collection, empty until it has been created.
	LibraryCollectionID string

	ManagerAction   ManagerAction
	LastEvaluatedAt time.Time
	CreatedAt       time.Time
}

// CollectionMedia is one item tracked by a collection.
type CollectionMedia struct {
	ID            int64
	CollectionID  int64
	MediaServerID string
	TmdbID        int
	TvdbID        int
	AddDate       time.Time
	IsManual      bool
}

// Deadline returns the moment the item becomes eligible for removal.
func (m CollectionMedia) Deadline(deleteAfterDays int) time.Time {
	return m.AddDate.AddDate(0, 0, deleteAfterDays)
}

// Store is the persistence interface for rule groups and collections.
type Store interface {
	CreateRuleGroup(ctx context.Context, g *RuleGroup) error
	UpdateRuleGroup(ctx context.Context, g *RuleGroup) error
	GetRuleGroup(ctx context.Context, id int64) (*RuleGroup, error)
	GetRuleGroupByName(ctx context.Context, name string) (*RuleGroup, error)
	ListRuleGroups(ctx context.Context, activeOnly bool) ([]RuleGroup, error)
	DeleteRuleGroup(ctx context.Context, id int64) error

	CreateCollection(ctx context.Context, c *Collection) error
	UpdateCollection(ctx context.Context, c *Collection) error
	GetCollection(ctx context.Context, id int64) (*Collection, error)
	ListCollections(ctx context.Context, activeOnly bool) ([]Collection, error)
	DeleteCollection(ctx context.Context, id int64) error

	// AddCollectionMedia inserts m unless the collection already tracks the
	// same media server id, in which case m is filled from the existing row
	// and created is false.
	AddCollectionMedia(ctx context.Context, m *CollectionMedia) (created bool, err error)
	GetCollectionMedia(ctx context.Context, collectionID int64, mediaServerID string) (*CollectionMedia, error)
	ListCollectionMedia(ctx context.Context, collectionID int64) ([]CollectionMedia, error)
	DeleteCollectionMedia(ctx context.Context, id int64) error

	Close() error
}

// StorageError wraps a backend failure with the operation that caused it.
type StorageError struct {
	Backend   string
	Operation string
	Cause     error
}

// Error returns the error message.
func (e *StorageError) Error() string {
	return fmt.Sprintf("%s storage: %s: %v", e.Backend, e.Operation, e.Cause)
}

// Unwrap returns the underlying cause.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

// NewStorageError creates a StorageError.
func NewStorageError(backend, operation string, cause error) *StorageError {
	return &StorageError{Backend: backend, Operation: operation, Cause: cause}
}
