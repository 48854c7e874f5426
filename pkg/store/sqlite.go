package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "github.com/mattn/go-sqlite3" // registers "sqlite3"
	_ "modernc.org/sqlite"          // registers "sqlite"

	"curator-hq/curator/pkg/media"
	"curator-hq/curator/pkg/store/migrations"
)

// Fixed width so lexical order matches chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteConfig contains configuration for the SQLite storage backend.
type SQLiteConfig struct {
	// Driver selects the database/sql driver: "sqlite" (pure Go) or
	// "sqlite3" (cgo).
	// Default: sqlite
	Driver string

	// Path is the database file path, or ":memory:".
	Path string

	// MaxOpenConns is the maximum number of open connections.
	// Default: 1
	MaxOpenConns int

	// WALMode enables Write-Ahead Logging.
	// Default: true
	WALMode bool

	// BusyTimeout is the duration to wait when the database is locked.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// DefaultSQLiteConfig returns the default SQLite configuration.
func DefaultSQLiteConfig() *SQLiteConfig {
	return &SQLiteConfig{
		Driver:       "sqlite",
		Path:         "data/curator.db",
		MaxOpenConns: 1,
		WALMode:      true,
		BusyTimeout:  5 * time.Second,
	}
}

// SQLiteStore implements Store on a SQLite database.
type SQLiteStore struct {
	db     *sql.DB
	config *SQLiteConfig
	logger *slog.Logger
}

// NewSQLiteStore opens the database and applies pending migrations.
func NewSQLiteStore(config *SQLiteConfig) (*SQLiteStore, error) {
	if config == nil {
		config = DefaultSQLiteConfig()
	}
	if config.Driver == "" {
		config.Driver = "sqlite"
	}
	if config.MaxOpenConns <= 0 {
		config.MaxOpenConns = 1
	}

	logger := slog.Default().With("component", "store.sqlite")

	db, err := sql.Open(config.Driver, config.Path)
	if err != nil {
		return nil, NewStorageError("sqlite", "open", err)
	}
	// Pragmas and in-memory databases are per connection.
	db.SetMaxOpenConns(config.MaxOpenConns)

	s := &SQLiteStore{db: db, config: config, logger: logger}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, err
	}

	logger.Info("SQLite storage initialized",
		"driver", config.Driver,
		"path", config.Path,
		"wal_mode", config.WALMode,
	)
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	if s.config.WALMode && s.config.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return NewStorageError("sqlite", "enable_wal", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", s.config.BusyTimeout.Milliseconds())); err != nil {
		return NewStorageError("sqlite", "set_busy_timeout", err)
	}
	if _, err := s.db.Exec("PRAGMA foreign_keys=ON;"); err != nil {
		return NewStorageError("sqlite", "enable_foreign_keys", err)
	}
	if err := migrations.Run(s.db, s.logger); err != nil {
		return NewStorageError("sqlite", "migrate", err)
	}
	return nil
}

// Ping checks that the database is reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return NewStorageError("sqlite", "ping", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateRuleGroup inserts a rule group and its rules, populating their ids.
func (s *SQLiteStore) CreateRuleGroup(ctx context.Context, g *RuleGroup) error {
	return s.withTx(ctx, "create_rule_group", func(tx *sql.Tx) error {
		now := time.Now().UTC()
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rule_groups (name, description, library_id, is_active, collection_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			g.Name, g.Description, g.LibraryID, boolToInt(g.IsActive), g.CollectionID, formatTime(now),
		)
		if err != nil {
			return fmt.Errorf("insert rule group: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		g.ID = id
		g.CreatedAt = now
		return insertRules(ctx, tx, g)
	})
}

// UpdateRuleGroup updates a rule group and replaces its rules.
func (s *SQLiteStore) UpdateRuleGroup(ctx context.Context, g *RuleGroup) error {
	return s.withTx(ctx, "update_rule_group", func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE rule_groups SET name = ?, description = ?, library_id = ?, is_active = ?, collection_id = ?
			 WHERE id = ?`,
			g.Name, g.Description, g.LibraryID, boolToInt(g.IsActive), g.CollectionID, g.ID,
		)
		if err != nil {
			return fmt.Errorf("update rule group: %w", err)
		}
		if err := requireAffected(res); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM rules WHERE rule_group_id = ?`, g.ID); err != nil {
			return fmt.Errorf("delete rules: %w", err)
		}
		return insertRules(ctx, tx, g)
	})
}

func insertRules(ctx context.Context, tx *sql.Tx, g *RuleGroup) error {
	for i := range g.Rules {
		r := &g.Rules[i]
		res, err := tx.ExecContext(ctx,
			`INSERT INTO rules (rule_group_id, position, section, rule_json) VALUES (?, ?, ?, ?)`,
			g.ID, i, r.Section, r.RuleJSON,
		)
		if err != nil {
			return fmt.Errorf("insert rule %d: %w", i, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("last insert id: %w", err)
		}
		r.ID = id
		r.GroupID = g.ID
	}
	return nil
}

// GetRuleGroup returns a rule group with its rules in order.
func (s *SQLiteStore) GetRuleGroup(ctx context.Context, id int64) (*RuleGroup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, library_id, is_active, collection_id, created_at
		 FROM rule_groups WHERE id = ?`, id)
	return s.loadRuleGroup(ctx, "get_rule_group", row)
}

// GetRuleGroupByName returns the rule group with the given name.
func (s *SQLiteStore) GetRuleGroupByName(ctx context.Context, name string) (*RuleGroup, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, library_id, is_active, collection_id, created_at
		 FROM rule_groups WHERE name = ?`, name)
	return s.loadRuleGroup(ctx, "get_rule_group_by_name", row)
}

func (s *SQLiteStore) loadRuleGroup(ctx context.Context, op string, row *sql.Row) (*RuleGroup, error) {
	g, err := scanRuleGroup(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, NewStorageError("sqlite", op, err)
	}
	if g.Rules, err = s.listRules(ctx, g.ID); err != nil {
		return nil, NewStorageError("sqlite", op, err)
	}
	return g, nil
}

// ListRuleGroups returns all rule groups ordered by id.
func (s *SQLiteStore) ListRuleGroups(ctx context.Context, activeOnly bool) ([]RuleGroup, error) {
	query := `SELECT id, name, description, library_id, is_active, collection_id, created_at FROM rule_groups`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewStorageError("sqlite", "list_rule_groups", err)
	}
	defer rows.Close()

	var groups []RuleGroup
	for rows.Next() {
		g, err := scanRuleGroup(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "list_rule_groups", err)
		}
		groups = append(groups, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "list_rule_groups", err)
	}
	rows.Close()

	for i := range groups {
		if groups[i].Rules, err = s.listRules(ctx, groups[i].ID); err != nil {
			return nil, NewStorageError("sqlite", "list_rule_groups", err)
		}
	}
	return groups, nil
}

func (s *SQLiteStore) listRules(ctx context.Context, groupID int64) ([]Rule, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, rule_group_id, section, rule_json FROM rules WHERE rule_group_id = ? ORDER BY position`, groupID)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()

	var out []Rule
	for rows.Next() {
		var r Rule
		if err := rows.Scan(&r.ID, &r.GroupID, &r.Section, &r.RuleJSON); err != nil {
			return nil, fmt.Errorf("scan rule: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// DeleteRuleGroup deletes a rule group and its rules. The collection is kept.
func (s *SQLiteStore) DeleteRuleGroup(ctx context.Context, id int64) error {
	return s.withTx(ctx, "delete_rule_group", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM rules WHERE rule_group_id = ?`, id); err != nil {
			return fmt.Errorf("delete rules: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM rule_groups WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete rule group: %w", err)
		}
		return requireAffected(res)
	})
}

// CreateCollection inserts a collection and populates its id.
func (s *SQLiteStore) CreateCollection(ctx context.Context, c *Collection) error {
	if c.ManagerAction == "" {
		c.ManagerAction = ManagerDelete
	}
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collections (title, library_id, type, is_active, delete_after_days,
		 library_collection_id, manager_action, last_evaluated_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.Title, c.LibraryID, string(c.Type), boolToInt(c.IsActive), c.DeleteAfterDays,
		c.LibraryCollectionID, string(c.ManagerAction), nullTime(c.LastEvaluatedAt), formatTime(now),
	)
	if err != nil {
		return NewStorageError("sqlite", "create_collection", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return NewStorageError("sqlite", "create_collection", err)
	}
	c.ID = id
	c.CreatedAt = now
	return nil
}

// UpdateCollection updates every mutable column of a collection.
func (s *SQLiteStore) UpdateCollection(ctx context.Context, c *Collection) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE collections SET title = ?, library_id = ?, type = ?, is_active = ?, delete_after_days = ?,
		 library_collection_id = ?, manager_action = ?, last_evaluated_at = ?
		 WHERE id = ?`,
		c.Title, c.LibraryID, string(c.Type), boolToInt(c.IsActive), c.DeleteAfterDays,
		c.LibraryCollectionID, string(c.ManagerAction), nullTime(c.LastEvaluatedAt), c.ID,
	)
	if err != nil {
		return NewStorageError("sqlite", "update_collection", err)
	}
	return requireAffected(res)
}

// GetCollection returns a collection by id.
func (s *SQLiteStore) GetCollection(ctx context.Context, id int64) (*Collection, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, title, library_id, type, is_active, delete_after_days, library_collection_id,
		 manager_action, last_evaluated_at, created_at
		 FROM collections WHERE id = ?`, id)
	c, err := scanCollection(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, NewStorageError("sqlite", "get_collection", err)
	}
	return c, err
}

// ListCollections returns all collections ordered by id.
func (s *SQLiteStore) ListCollections(ctx context.Context, activeOnly bool) ([]Collection, error) {
	query := `SELECT id, title, library_id, type, is_active, delete_after_days, library_collection_id,
		 manager_action, last_evaluated_at, created_at FROM collections`
	if activeOnly {
		query += ` WHERE is_active = 1`
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, NewStorageError("sqlite", "list_collections", err)
	}
	defer rows.Close()

	var out []Collection
	for rows.Next() {
		c, err := scanCollection(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "list_collections", err)
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "list_collections", err)
	}
	return out, nil
}

// DeleteCollection deletes a collection and its media rows.
func (s *SQLiteStore) DeleteCollection(ctx context.Context, id int64) error {
	return s.withTx(ctx, "delete_collection", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM collection_media WHERE collection_id = ?`, id); err != nil {
			return fmt.Errorf("delete collection media: %w", err)
		}
		res, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("delete collection: %w", err)
		}
		return requireAffected(res)
	})
}

// AddCollectionMedia inserts m unless the collection already tracks it.
func (s *SQLiteStore) AddCollectionMedia(ctx context.Context, m *CollectionMedia) (bool, error) {
	if m.AddDate.IsZero() {
		m.AddDate = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO collection_media (collection_id, media_server_id, tmdb_id, tvdb_id, add_date, is_manual)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (collection_id, media_server_id) DO NOTHING`,
		m.CollectionID, m.MediaServerID, m.TmdbID, m.TvdbID, formatTime(m.AddDate), boolToInt(m.IsManual),
	)
	if err != nil {
		return false, NewStorageError("sqlite", "add_collection_media", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, NewStorageError("sqlite", "add_collection_media", err)
	}
	if n == 0 {
		existing, err := s.GetCollectionMedia(ctx, m.CollectionID, m.MediaServerID)
		if err != nil {
			return false, err
		}
		*m = *existing
		return false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return false, NewStorageError("sqlite", "add_collection_media", err)
	}
	m.ID = id
	return true, nil
}

// GetCollectionMedia returns the row tracking mediaServerID in a collection.
func (s *SQLiteStore) GetCollectionMedia(ctx context.Context, collectionID int64, mediaServerID string) (*CollectionMedia, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, collection_id, media_server_id, tmdb_id, tvdb_id, add_date, is_manual
		 FROM collection_media WHERE collection_id = ? AND media_server_id = ?`, collectionID, mediaServerID)
	m, err := scanCollectionMedia(row)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, NewStorageError("sqlite", "get_collection_media", err)
	}
	return m, err
}

// ListCollectionMedia returns a collection's rows ordered by add date.
func (s *SQLiteStore) ListCollectionMedia(ctx context.Context, collectionID int64) ([]CollectionMedia, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, collection_id, media_server_id, tmdb_id, tvdb_id, add_date, is_manual
		 FROM collection_media WHERE collection_id = ? ORDER BY add_date, id`, collectionID)
	if err != nil {
		return nil, NewStorageError("sqlite", "list_collection_media", err)
	}
	defer rows.Close()

	var out []CollectionMedia
	for rows.Next() {
		m, err := scanCollectionMedia(rows)
		if err != nil {
			return nil, NewStorageError("sqlite", "list_collection_media", err)
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, NewStorageError("sqlite", "list_collection_media", err)
	}
	return out, nil
}

// DeleteCollectionMedia deletes one tracked item.
func (s *SQLiteStore) DeleteCollectionMedia(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM collection_media WHERE id = ?`, id)
	if err != nil {
		return NewStorageError("sqlite", "delete_collection_media", err)
	}
	return requireAffected(res)
}

func (s *SQLiteStore) withTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return NewStorageError("sqlite", op, err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		if errors.Is(err, ErrNotFound) {
			return err
		}
		return NewStorageError("sqlite", op, err)
	}
	if err := tx.Commit(); err != nil {
		return NewStorageError("sqlite", op, err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRuleGroup(sc scanner) (*RuleGroup, error) {
	var (
		g         RuleGroup
		isActive  int
		createdAt string
	)
	err := sc.Scan(&g.ID, &g.Name, &g.Description, &g.LibraryID, &isActive, &g.CollectionID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan rule group: %w", err)
	}
	g.IsActive = isActive != 0
	g.CreatedAt = parseTime(createdAt)
	return &g, nil
}

func scanCollection(sc scanner) (*Collection, error) {
	var (
		c             Collection
		kind, action  string
		isActive      int
		lastEvaluated sql.NullString
		createdAt     string
	)
	err := sc.Scan(&c.ID, &c.Title, &c.LibraryID, &kind, &isActive, &c.DeleteAfterDays,
		&c.LibraryCollectionID, &action, &lastEvaluated, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan collection: %w", err)
	}
	c.Type = media.Kind(kind)
	c.ManagerAction = ManagerAction(action)
	c.IsActive = isActive != 0
	if lastEvaluated.Valid {
		c.LastEvaluatedAt = parseTime(lastEvaluated.String)
	}
	c.CreatedAt = parseTime(createdAt)
	return &c, nil
}

func scanCollectionMedia(sc scanner) (*CollectionMedia, error) {
	var (
		m        CollectionMedia
		addDate  string
		isManual int
	)
	err := sc.Scan(&m.ID, &m.CollectionID, &m.MediaServerID, &m.TmdbID, &m.TvdbID, &addDate, &isManual)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan collection media: %w", err)
	}
	m.AddDate = parseTime(addDate)
	m.IsManual = isManual != 0
	return &m, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
