package gitsource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"curator-hq/curator/pkg/config"
)

// Commit describes the checked out revision.
type Commit struct {
	SHA       string    `json:"sha"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// SyncResult is the outcome of Sync.
type SyncResult struct {
	// Commit is the revision now checked out.
	Commit Commit

	// Cloned is true when the repository was cloned by this call.
	Cloned bool

	// FileChanged is true when the rule file differs from the previous
	// revision, or on the first sync.
	FileChanged bool
}

// Repository is a local clone of the rule repository.
type Repository struct {
	cfg    config.GitConfig
	file   string
	auth   AuthProvider
	logger *slog.Logger

	mu   sync.Mutex
	repo *gogit.Repository
	seen bool
}

// NewRepository creates a repository handle. file is the rule file path
// relative to the repository root.
func NewRepository(cfg config.GitConfig, file string) (*Repository, error) {
	if cfg.Repository == "" {
		return nil, fmt.Errorf("repository URL cannot be empty")
	}
	if cfg.Branch == "" {
		return nil, fmt.Errorf("branch cannot be empty")
	}
	if file == "" || filepath.IsAbs(file) {
		return nil, fmt.Errorf("rule file must be a path inside the repository, got %q", file)
	}
	auth, err := NewAuthProvider(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("creating auth provider: %w", err)
	}
	if cfg.LocalPath == "" {
		cfg.LocalPath = config.DefaultGitLocalPath
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = config.DefaultGitTimeout
	}
	return &Repository{
		cfg:    cfg,
		file:   filepath.ToSlash(filepath.Clean(file)),
		auth:   auth,
		logger: slog.Default().With("component", "rules.gitsource", "repository", cfg.Repository),
	}, nil
}

// RulesPath returns the local path of the rule file.
func (r *Repository) RulesPath() string {
	return filepath.Join(r.cfg.LocalPath, filepath.FromSlash(r.file))
}

// Sync clones the repository on first use and pulls it afterwards.
func (r *Repository) Sync(ctx context.Context) (*SyncResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	res := &SyncResult{}
	if r.repo == nil {
		cloned, err := r.open(ctx)
		if err != nil {
			return nil, err
		}
		res.Cloned = cloned
	}

	before, err := r.head()
	if err != nil {
		return nil, err
	}
	if !res.Cloned {
		if err := r.pull(ctx); err != nil {
			return nil, err
		}
	}
	after, err := r.head()
	if err != nil {
		return nil, err
	}

	commit, err := r.repo.CommitObject(after)
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", after, err)
	}
	res.Commit = Commit{
		SHA:       commit.Hash.String(),
		Author:    commit.Author.Name,
		Timestamp: commit.Author.When,
		Message:   commit.Message,
	}

	switch {
	case !r.seen:
		res.FileChanged = true
	case before != after:
		res.FileChanged, err = r.fileChanged(before, after)
		if err != nil {
			return nil, err
		}
	}
	r.seen = true

	r.logger.InfoContext(ctx, "rule repository synced",
		"commit", res.Commit.SHA,
		"cloned", res.Cloned,
		"file_changed", res.FileChanged,
	)
	return res, nil
}

// open uses an existing clone at LocalPath or clones the remote.
func (r *Repository) open(ctx context.Context) (bool, error) {
	if _, err := os.Stat(filepath.Join(r.cfg.LocalPath, ".git")); err == nil {
		repo, err := gogit.PlainOpen(r.cfg.LocalPath)
		if err != nil {
			return false, fmt.Errorf("opening existing clone: %w", err)
		}
		r.repo = repo
		return false, nil
	}

	if err := os.MkdirAll(r.cfg.LocalPath, 0o755); err != nil {
		return false, fmt.Errorf("creating clone directory: %w", err)
	}
	auth, err := r.auth.Auth()
	if err != nil {
		return false, fmt.Errorf("getting auth: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	repo, err := gogit.PlainCloneContext(ctx, r.cfg.LocalPath, false, &gogit.CloneOptions{
		URL:           r.cfg.Repository,
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  true,
		Depth:         r.cfg.Depth,
		Auth:          auth,
	})
	if err != nil {
		return false, fmt.Errorf("cloning %s: %w", r.cfg.Repository, err)
	}
	r.repo = repo
	return true, nil
}

func (r *Repository) pull(ctx context.Context) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("getting worktree: %w", err)
	}
	auth, err := r.auth.Auth()
	if err != nil {
		return fmt.Errorf("getting auth: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
	defer cancel()
	err = wt.PullContext(ctx, &gogit.PullOptions{
		RemoteName:    "origin",
		ReferenceName: plumbing.NewBranchReferenceName(r.cfg.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil && !errors.Is(err, gogit.NoErrAlreadyUpToDate) {
		return fmt.Errorf("pulling %s: %w", r.cfg.Repository, err)
	}
	return nil
}

func (r *Repository) head() (plumbing.Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("reading HEAD: %w", err)
	}
	return ref.Hash(), nil
}

// fileChanged reports whether the rule file differs between two commits.
func (r *Repository) fileChanged(from, to plumbing.Hash) (bool, error) {
	fromTree, err := r.tree(from)
	if err != nil {
		return false, err
	}
	toTree, err := r.tree(to)
	if err != nil {
		return false, err
	}
	changes, err := object.DiffTree(fromTree, toTree)
	if err != nil {
		return false, fmt.Errorf("diffing trees: %w", err)
	}
	for _, c := range changes {
		if c.From.Name == r.file || c.To.Name == r.file {
			return true, nil
		}
	}
	return false, nil
}

func (r *Repository) tree(h plumbing.Hash) (*object.Tree, error) {
	commit, err := r.repo.CommitObject(h)
	if err != nil {
		return nil, fmt.Errorf("reading commit %s: %w", h, err)
	}
	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("reading tree of %s: %w", h, err)
	}
	return tree, nil
}
