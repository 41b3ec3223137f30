package git

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

// ResolveRange resolves spec to an inclusive, newest-first commit range.
func (r *GoGitRepository) ResolveRange(ctx context.Context, spec domain.RangeSpec) (*domain.CommitRange, error) {
	if err := r.checkBorn(); err != nil {
		return nil, err
	}

	var (
		commits []*object.Commit
		err     error
	)
	switch s := spec.(type) {
	case domain.SymbolicRange:
		commits, err = r.walkSymbolic(ctx, s)
	case domain.OffsetRange:
		commits, err = r.walkOffset(ctx, s)
	default:
		return nil, fmt.Errorf("%w: unsupported range type %T", domain.ErrInvalidRange, spec)
	}
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		return nil, domain.ErrEmptyHistory
	}

	out := &domain.CommitRange{Commits: make([]domain.Commit, 0, len(commits))}
	for _, c := range commits {
		out.Commits = append(out.Commits, toDomainCommit(c))
	}

	oldest := commits[len(commits)-1]
	if oldest.NumParents() > 0 {
		parent, err := oldest.Parent(0)
		if err != nil {
			r.logger.Warn(ctx, "could not load parent of oldest commit", map[string]interface{}{
				"commit": oldest.Hash.String(),
				"error":  err.Error(),
			})
		} else {
			base := toDomainCommit(parent)
			out.Base = &base
		}
	}

	r.logger.Debug(ctx, "resolved commit range", map[string]interface{}{
		"commits_found": len(out.Commits),
		"newest_sha":    out.Newest().ID,
		"oldest_sha":    out.Oldest().ID,
		"has_base":      out.Base != nil,
	})

	return out, nil
}

// checkBorn returns domain.ErrEmptyHistory when HEAD points at an unborn branch.
func (r *GoGitRepository) checkBorn() error {
	_, err := r.repo.Reference(plumbing.HEAD, true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return domain.ErrEmptyHistory
	}
	if err != nil {
		return fmt.Errorf("failed to resolve HEAD: %w", err)
	}
	return nil
}

// resolveCommit resolves a git revision (HEAD, HEAD~2, branch, sha) to a commit.
func (r *GoGitRepository) resolveCommit(rev string) (*object.Commit, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot resolve %q: %w", domain.ErrInvalidRange, rev, err)
	}
	commit, err := r.repo.CommitObject(*hash)
	if err != nil {
		return nil, fmt.Errorf("%w: %q is not a commit: %w", domain.ErrInvalidRange, rev, err)
	}
	return commit, nil
}

func (r *GoGitRepository) walkSymbolic(ctx context.Context, s domain.SymbolicRange) ([]*object.Commit, error) {
	start := s.Start
	if start == "" {
		start = domain.DefaultRevision
	}
	end := s.End
	if end == "" {
		end = start
	}

	startCommit, err := r.resolveCommit(start)
	if err != nil {
		return nil, err
	}
	endCommit, err := r.resolveCommit(end)
	if err != nil {
		return nil, err
	}

	var (
		commits []*object.Commit
		reached bool
	)
	err = walkTopoTime(startCommit, r.repo.CommitObject, func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, c)
		if c.Hash == endCommit.Hash {
			reached = true
			return storer.ErrStop
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk commit history: %w", err)
	}
	if !reached {
		return nil, fmt.Errorf("%w: %s is not reachable from %s", domain.ErrInvalidRange, end, start)
	}
	return commits, nil
}

func (r *GoGitRepository) walkOffset(ctx context.Context, s domain.OffsetRange) ([]*object.Commit, error) {
	if s.Start < 0 {
		return nil, fmt.Errorf("%w: start offset %d is negative", domain.ErrInvalidRange, s.Start)
	}
	last := s.Start
	if s.End != nil {
		if *s.End < s.Start {
			return nil, fmt.Errorf("%w: end offset %d is before start offset %d", domain.ErrInvalidRange, *s.End, s.Start)
		}
		last = *s.End
	}

	head, err := r.resolveCommit(domain.DefaultRevision)
	if err != nil {
		return nil, err
	}

	var (
		commits []*object.Commit
		index   int
	)
	err = walkTopoTime(head, r.repo.CommitObject, func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if index >= s.Start {
			commits = append(commits, c)
		}
		if index == last {
			return storer.ErrStop
		}
		index++
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk commit history: %w", err)
	}
	if len(commits) > 0 && index < last {
		r.logger.Warn(ctx, "history is shorter than the requested range", map[string]interface{}{
			"requested_end": last,
			"commits_found": len(commits),
		})
	}
	return commits, nil
}

func toDomainCommit(c *object.Commit) domain.Commit {
	parents := make([]string, 0, len(c.ParentHashes))
	for _, p := range c.ParentHashes {
		parents = append(parents, p.String())
	}
	return domain.Commit{
		ID:         c.Hash.String(),
		AuthorName: c.Author.Name,
		Message:    c.Message,
		ParentIDs:  parents,
		When:       c.Committer.When,
	}
}
