// Package domain defines the core business entities and interfaces for rbpost.
package domain

import "time"

// RemoteDescriptor is a read-only view of one configured git remote.
type RemoteDescriptor struct {
	// Name is the remote name, e.g. "origin".
	Name string

	// URL is the first URL configured for the remote.
	URL string
}

// ServerRepository is a repository record known to the review server.
// Values are treated as immutable once fetched.
type ServerRepository struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Tool string `json:"tool"`
	Path string `json:"path"`
}

// Commit is a single commit read from the local history graph.
type Commit struct {
	// ID is the full 40-character commit SHA.
	ID string

	// AuthorName is the commit author's display name.
	AuthorName string

	// Message is the full commit message.
	Message string

	// ParentIDs lists parent SHAs, first parent first.
	ParentIDs []string

	// When is the committer timestamp.
	When time.Time
}

// CommitRange is the result of range resolution.
// Commits are ordered newest first and are never empty on success.
type CommitRange struct {
	Commits []Commit

	// Base is the first parent of the oldest commit in Commits,
	// or nil when that commit is a root commit.
	Base *Commit
}

// Newest returns the first (newest) commit of the range.
func (r *CommitRange) Newest() Commit {
	return r.Commits[0]
}

// Oldest returns the last (oldest) commit of the range.
func (r *CommitRange) Oldest() Commit {
	return r.Commits[len(r.Commits)-1]
}

// IDs returns the commit SHAs of the range, newest first.
func (r *CommitRange) IDs() []string {
	ids := make([]string, 0, len(r.Commits))
	for _, c := range r.Commits {
		ids = append(ids, c.ID)
	}
	return ids
}

// RangeSpec selects how a commit range is addressed.
// It is implemented by SymbolicRange and OffsetRange only.
type RangeSpec interface {
	rangeSpec()
}

// SymbolicRange addresses a range by git revisions.
// An empty Start means HEAD; an empty End means Start.
type SymbolicRange struct {
	Start string
	End   string
}

func (SymbolicRange) rangeSpec() {}

// OffsetRange addresses a range by generation offsets from HEAD
// (0 = HEAD, 1 = the next commit in walk order, ...).
// A nil End selects exactly one commit.
type OffsetRange struct {
	Start int
	End   *int
}

func (OffsetRange) rangeSpec() {}

// ReviewRequest identifies a review request created on the server.
type ReviewRequest struct {
	ID          int    `json:"id"`
	AbsoluteURL string `json:"absolute_url"`
}

// Draft holds the fields pushed to a review request's draft.
// Empty fields are left untouched on the server.
type Draft struct {
	Summary      string
	Description  string
	Branch       string
	TargetPeople string
}

// DiffStats summarizes a unified diff.
type DiffStats struct {
	Files   int
	Added   int
	Deleted int
}

// Session is the run-wide context assembled during bootstrap.
// It is built once and read-only afterwards.
type Session struct {
	Verbose  bool
	DryRun   bool
	Repo     LocalGitRepository
	Selected ServerRepository
	Client   ReviewClient
}

// UploadInput contains the parameters for an upload.
type UploadInput struct {
	Range  RangeSpec
	DryRun bool
}

// UploadOutput describes the result of an upload.
type UploadOutput struct {
	// NothingToSubmit is set when the range had no commits.
	// No other field is populated in that case.
	NothingToSubmit bool

	Summary     string
	Description string
	Branch      string
	Stats       DiffStats

	// Request is nil on dry runs.
	Request *ReviewRequest
}

// DefaultRevision is used when a symbolic range has no start.
const DefaultRevision = "HEAD"
