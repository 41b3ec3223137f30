// Package domain defines the core business entities and interfaces for rbpost.
// This package contains no external dependencies and represents the innermost layer
// of the CLEAN architecture.
package domain

import (
	"context"
	"errors"
)

// Domain errors for repository discovery, matching, range resolution and submission.
var (
	// ErrRepositoryNotFound indicates no git repository encloses the given path.
	ErrRepositoryNotFound = errors.New("git repository not found at specified path")

	// ErrNoRemoteIdentifiers indicates none of the configured remotes point at the git host.
	ErrNoRemoteIdentifiers = errors.New("no repository names found in remotes")

	// ErrNoMatch indicates no remote matches a repository known to the review server.
	ErrNoMatch = errors.New("no matching repository found on review server")

	// ErrInvalidRange indicates a commit range that cannot be resolved.
	ErrInvalidRange = errors.New("invalid commit range")

	// ErrEmptyHistory indicates the range walk produced no commits.
	ErrEmptyHistory = errors.New("no commits in requested range")

	// ErrEmptyDiff indicates the generated diff has no content.
	ErrEmptyDiff = errors.New("diff is empty")

	// ErrPartialSubmission indicates a review request was created but not completed.
	ErrPartialSubmission = errors.New("review request created but not completed")

	// ErrNotImplemented indicates a command that only exists as an interface contract.
	ErrNotImplemented = errors.New("command not implemented")
)

// LocalGitRepository provides remotes, commit ranges and branch metadata from a local repository.
type LocalGitRepository interface {
	// Root returns the working tree root (or the git dir for bare repositories).
	Root() string

	// Remotes lists the configured remotes with their first URL.
	Remotes(ctx context.Context) ([]RemoteDescriptor, error)

	// ResolveRange resolves spec to an inclusive, newest-first commit range.
	// Returns ErrInvalidRange for unresolvable input and ErrEmptyHistory
	// when the walk yields nothing.
	ResolveRange(ctx context.Context, spec RangeSpec) (*CommitRange, error)

	// TrackingBranch returns the short upstream name of the checked-out branch.
	// ok is false when no upstream can be determined.
	TrackingBranch(ctx context.Context) (name string, ok bool)

	// Close releases any resources held by the repository.
	Close() error
}

// ReviewClient is the review-server API used by rbpost.
type ReviewClient interface {
	ListRepositories(ctx context.Context) ([]ServerRepository, error)
	CreateReviewRequest(ctx context.Context, repositoryID int) (*ReviewRequest, error)
	UploadDiff(ctx context.Context, requestID int, diff []byte) error
	UpdateDraft(ctx context.Context, requestID int, draft Draft) error

	// CurrentUser returns the username the client is authenticated as.
	CurrentUser(ctx context.Context) (string, error)
}

// DiffGenerator produces a full-index unified diff between two commits.
type DiffGenerator interface {
	Diff(ctx context.Context, dir, base, head string) ([]byte, error)
	Stats(diff []byte) (DiffStats, error)
}

// Reporter writes user-facing lines to the normal, verbose and error channels.
type Reporter interface {
	Info(format string, args ...any)
	Verbose(format string, args ...any)
	Error(format string, args ...any)
}

// SlipFinder looks up the CI routing slip for a set of commits.
type SlipFinder interface {
	// FindByCommits returns the correlation ID of the first slip matching commits,
	// or "" when none matches.
	FindByCommits(ctx context.Context, repository string, commits []string) (string, error)

	// Close releases any resources held by the finder.
	Close() error
}
