// Package git provides adapters for interacting with local Git repositories.
// This package implements the domain.LocalGitRepository interface using go-git/v5.
package git

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

// Logger defines the logging interface for the git adapter.
// This interface enables dependency injection and testability.
type Logger interface {
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
}

// GoGitRepository implements domain.LocalGitRepository using go-git/v5.
type GoGitRepository struct {
	repo   *git.Repository
	root   string
	logger Logger
}

// Locate searches path and its ancestors for a git repository and opens it.
// Returns domain.ErrRepositoryNotFound if no enclosing repository exists.
func Locate(path string, log Logger) (*GoGitRepository, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrRepositoryNotFound, path, err)
	}

	repo, err := git.PlainOpenWithOptions(abs, &git.PlainOpenOptions{
		DetectDotGit:          true,
		EnableDotGitCommonDir: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", domain.ErrRepositoryNotFound, abs, err)
	}

	root := abs
	if wt, err := repo.Worktree(); err == nil {
		root = wt.Filesystem.Root()
	}

	log.Debug(context.Background(), "located git repository", map[string]interface{}{
		"search_path": abs,
		"root":        root,
	})

	return &GoGitRepository{
		repo:   repo,
		root:   root,
		logger: log,
	}, nil
}

// Root returns the working tree root of the repository.
func (r *GoGitRepository) Root() string {
	return r.root
}

// Remotes lists the configured remotes with their first URL.
// Remotes without URLs are skipped.
func (r *GoGitRepository) Remotes(ctx context.Context) ([]domain.RemoteDescriptor, error) {
	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("failed to list remotes: %w", err)
	}

	out := make([]domain.RemoteDescriptor, 0, len(remotes))
	for _, remote := range remotes {
		cfg := remote.Config()
		if len(cfg.URLs) == 0 {
			r.logger.Debug(ctx, "remote has no URLs", map[string]interface{}{"remote": cfg.Name})
			continue
		}
		out = append(out, domain.RemoteDescriptor{Name: cfg.Name, URL: cfg.URLs[0]})
	}
	return out, nil
}

// upstreamPattern extracts the branch part of a remote-tracking reference name.
var upstreamPattern = regexp.MustCompile(`^refs/remotes/[^/]+/(.+)$`)

// parseUpstream returns the short branch name of a remote-tracking reference,
// e.g. refs/remotes/origin/develop -> develop.
func parseUpstream(name string) (string, bool) {
	m := upstreamPattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// TrackingBranch returns the short upstream name of the checked-out branch.
func (r *GoGitRepository) TrackingBranch(ctx context.Context) (string, bool) {
	upstream, err := r.upstreamName()
	if err != nil {
		r.logger.Debug(ctx, "no tracking branch", map[string]interface{}{"reason": err.Error()})
		return "", false
	}

	short, ok := parseUpstream(upstream.String())
	if !ok {
		r.logger.Debug(ctx, "upstream is not a remote-tracking branch", map[string]interface{}{
			"upstream": upstream.String(),
		})
	}
	return short, ok
}

var errNoCheckedOutBranch = errors.New("no checked-out branch")

// upstreamName resolves the full upstream reference of the checked-out branch
// by mapping branch.<name>.merge through the remote's fetch refspecs.
func (r *GoGitRepository) upstreamName() (plumbing.ReferenceName, error) {
	head, err := r.repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}

	branches, err := r.repo.Branches()
	if err != nil {
		return "", fmt.Errorf("failed to list branches: %w", err)
	}

	var current plumbing.ReferenceName
	err = branches.ForEach(func(ref *plumbing.Reference) error {
		if head.Type() == plumbing.SymbolicReference && ref.Name() == head.Target() {
			current = ref.Name()
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to walk branches: %w", err)
	}
	if current == "" {
		return "", errNoCheckedOutBranch
	}

	cfg, err := r.repo.Config()
	if err != nil {
		return "", fmt.Errorf("failed to read config: %w", err)
	}

	branch, ok := cfg.Branches[current.Short()]
	if !ok || branch.Remote == "" || branch.Merge == "" {
		return "", fmt.Errorf("branch %s has no upstream configured", current.Short())
	}

	remote, ok := cfg.Remotes[branch.Remote]
	if !ok {
		return "", fmt.Errorf("upstream remote %q of %s is not configured", branch.Remote, current.Short())
	}
	for _, spec := range remote.Fetch {
		if spec.Match(branch.Merge) {
			return spec.Dst(branch.Merge), nil
		}
	}
	return "", fmt.Errorf("no fetch refspec of %q maps %s", branch.Remote, branch.Merge)
}

// Close releases any resources held by the repository.
// For go-git, this is a no-op as the repository doesn't hold persistent resources.
func (r *GoGitRepository) Close() error {
	return nil
}
