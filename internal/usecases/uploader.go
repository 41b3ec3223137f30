package usecases

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

// slipTrailer prefixes the CI correlation line appended to descriptions.
const slipTrailer = "CI-Correlation-ID: "

// Uploader creates a review request from a commit range of the session's repository.
type Uploader struct {
	session  *domain.Session
	differ   domain.DiffGenerator
	finder   domain.SlipFinder
	reporter domain.Reporter
	logger   Logger
}

// NewUploader creates a new Uploader with the given dependencies.
// finder may be nil, in which case descriptions are not annotated with CI slips.
func NewUploader(
	session *domain.Session,
	differ domain.DiffGenerator,
	finder domain.SlipFinder,
	reporter domain.Reporter,
	log Logger,
) *Uploader {
	return &Uploader{
		session:  session,
		differ:   differ,
		finder:   finder,
		reporter: reporter,
		logger:   log,
	}
}

// Upload resolves the requested range, builds the diff, summary and description,
// and (unless DryRun) creates and fills a review request.
//
// An empty range is not an error: the output has NothingToSubmit set and the
// server is never contacted.
func (u *Uploader) Upload(ctx context.Context, input domain.UploadInput) (*domain.UploadOutput, error) {
	repo := u.session.Repo
	u.reporter.Verbose("\nGathering information for request...\n")

	tracking, ok := repo.TrackingBranch(ctx)
	if ok {
		u.reporter.Verbose("\tTracking = %s\n", tracking)
	} else {
		u.reporter.Verbose("\tTracking = (none)\n")
	}

	rng, err := repo.ResolveRange(ctx, input.Range)
	if errors.Is(err, domain.ErrEmptyHistory) {
		u.reporter.Info("Nothing to submit: %v\n", err)
		return &domain.UploadOutput{NothingToSubmit: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve commit range: %w", err)
	}
	for _, c := range rng.Commits {
		u.reporter.Verbose("++COMMIT = %s : %s\n", c.AuthorName, c.ID)
	}

	out := &domain.UploadOutput{
		Summary:     BuildSummary(rng.Commits),
		Description: u.annotate(ctx, BuildDescription(rng.Commits), rng),
		Branch:      tracking,
	}
	u.reporter.Verbose("\tDescription is %d bytes.\n", len(out.Description))

	base := ""
	if rng.Base != nil {
		base = rng.Base.ID
	}
	diff, err := u.differ.Diff(ctx, repo.Root(), base, rng.Newest().ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate diff: %w", err)
	}
	if len(bytes.TrimSpace(diff)) == 0 {
		return nil, fmt.Errorf("%w: %d commit(s) starting at %s", domain.ErrEmptyDiff, len(rng.Commits), rng.Newest().ID)
	}
	u.reporter.Verbose("\tDiff is %d bytes.\n", len(diff))

	if stats, err := u.differ.Stats(diff); err != nil {
		u.logger.Warn(ctx, "could not parse diff for stats", map[string]interface{}{"error": err.Error()})
	} else if stats.Files == 0 {
		u.logger.Warn(ctx, "diff has no recognizable file sections", map[string]interface{}{
			"diff_size": len(diff),
		})
		u.reporter.Info("Warning: the generated diff contains no file sections and may be rejected by the server.\n")
	} else {
		out.Stats = stats
		u.reporter.Verbose("\t%d file(s) changed, %d insertion(s), %d deletion(s)\n",
			stats.Files, stats.Added, stats.Deleted)
	}
	u.reporter.Verbose("\tSummary = %s\n", out.Summary)

	if input.DryRun {
		u.reporter.Verbose("\tDescription=\n")
		u.verboseIndented(out.Description)
		u.reporter.Verbose("\tDiff=\n")
		u.verboseIndented(string(diff))
		u.logger.Info(ctx, "dry run complete", map[string]interface{}{
			"commits":   len(rng.Commits),
			"diff_size": len(diff),
		})
		return out, nil
	}

	req, err := u.submit(ctx, out, diff)
	if err != nil {
		return nil, err
	}
	out.Request = req
	return out, nil
}

// submit creates the review request, uploads the diff and fills the draft.
// Any failure after creation is wrapped in domain.ErrPartialSubmission.
func (u *Uploader) submit(ctx context.Context, out *domain.UploadOutput, diff []byte) (*domain.ReviewRequest, error) {
	client := u.session.Client
	repoID := u.session.Selected.ID

	req, err := client.CreateReviewRequest(ctx, repoID)
	if err != nil {
		return nil, fmt.Errorf("could not create review request: %w", err)
	}
	u.reporter.Verbose("Created review request #%d\n", req.ID)

	partial := func(step string, err error) error {
		u.logger.Error(ctx, "review request left incomplete", err, map[string]interface{}{
			"request_id": req.ID,
			"step":       step,
		})
		return fmt.Errorf("%w: #%d (%s) failed to %s: %w", domain.ErrPartialSubmission, req.ID, req.AbsoluteURL, step, err)
	}

	if err := client.UploadDiff(ctx, req.ID, diff); err != nil {
		return nil, partial("upload diff", err)
	}

	draft := domain.Draft{
		Summary:     out.Summary,
		Description: out.Description,
		Branch:      out.Branch,
	}
	if user, err := client.CurrentUser(ctx); err != nil {
		u.logger.Warn(ctx, "could not determine session user; target people left empty", map[string]interface{}{
			"error": err.Error(),
		})
	} else {
		draft.TargetPeople = user
	}

	if err := client.UpdateDraft(ctx, req.ID, draft); err != nil {
		return nil, partial("update draft", err)
	}

	u.logger.Info(ctx, "review request created", map[string]interface{}{
		"request_id":    req.ID,
		"repository_id": repoID,
		"url":           req.AbsoluteURL,
	})
	return req, nil
}

// annotate appends the CI correlation ID of the range when a slip finder is configured.
// Slips are keyed by the owner/repo of the origin remote. Lookup failures only warn.
func (u *Uploader) annotate(ctx context.Context, description string, rng *domain.CommitRange) string {
	if u.finder == nil {
		return description
	}

	remotes, err := u.session.Repo.Remotes(ctx)
	if err != nil {
		u.logger.Warn(ctx, "CI slip lookup skipped: cannot read remotes", map[string]interface{}{"error": err.Error()})
		return description
	}
	repository, ok := SlipRepository(remotes)
	if !ok {
		u.logger.Debug(ctx, "CI slip lookup skipped: no owner/repo remote", map[string]interface{}{
			"remotes": len(remotes),
		})
		return description
	}

	id, err := u.finder.FindByCommits(ctx, repository, rng.IDs())
	if err != nil {
		u.logger.Warn(ctx, "CI slip lookup failed", map[string]interface{}{
			"repository": repository,
			"error":      err.Error(),
		})
		return description
	}
	if id == "" {
		u.logger.Debug(ctx, "no CI slip for range", map[string]interface{}{
			"repository": repository,
			"commits":    len(rng.Commits),
		})
		return description
	}
	return description + "\n" + slipTrailer + id + "\n"
}

func (u *Uploader) verboseIndented(text string) {
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		u.reporter.Verbose("\t%s\n", sc.Text())
	}
}
