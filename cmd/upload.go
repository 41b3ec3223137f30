package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
	"github.com/MyCarrier-DevOps/rbpost/internal/usecases"
)

var offsets bool

func newUploadCmd(deps *Dependencies) *cobra.Command {
	uploadCmd := &cobra.Command{
		Use:   "upload [<start>..<end>]",
		Short: "Create a review request from a range of commits",
		Long: `upload creates a new review request from a range of commits.

Without arguments the HEAD commit is posted. A range "<start>..<end>" walks
from start back to end (inclusive), newest first; either side may be omitted.
With --offset the range is given as commit offsets from HEAD instead, so
"0..2" is HEAD and its two predecessors.

Unless --dry-run is set the new draft is opened in the browser.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpload(cmd, args, deps)
		},
	}

	uploadCmd.Flags().BoolVarP(&offsets, "offset", "o", false,
		"Interpret the range as offsets from HEAD")

	return uploadCmd
}

// runUpload executes the upload logic with injected dependencies.
func runUpload(cmd *cobra.Command, args []string, deps *Dependencies) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	arg := ""
	if len(args) > 0 {
		arg = args[0]
	}
	spec, err := usecases.ParseRangeSpec(arg, offsets)
	if err != nil {
		return err
	}

	a, err := bootstrap(ctx, deps)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	finder := slipFinder(ctx, a, deps)
	if finder != nil {
		defer func() {
			if closeErr := finder.Close(); closeErr != nil {
				a.log.Warn(ctx, "failed to close slip finder", map[string]interface{}{
					"error": closeErr.Error(),
				})
			}
		}()
	}

	uploader := usecases.NewUploader(a.session, deps.DiffGeneratorFactory(), finder, a.reporter, a.log)
	out, err := uploader.Upload(ctx, domain.UploadInput{Range: spec, DryRun: a.session.DryRun})
	if err != nil {
		a.log.Error(ctx, "upload failed", err, nil)
		switch {
		case errors.Is(err, domain.ErrInvalidRange):
			return fmt.Errorf("invalid commit range %q: %w", arg, err)
		case errors.Is(err, domain.ErrEmptyDiff):
			return fmt.Errorf("the selected commits have no changes: %w", err)
		}
		return err
	}

	if out.NothingToSubmit {
		return nil
	}

	if out.Request == nil {
		a.reporter.Info("Dry run: would post %q to %s (%d file(s), +%d -%d)\n",
			out.Summary, a.session.Selected.Name, out.Stats.Files, out.Stats.Added, out.Stats.Deleted)
		return nil
	}

	a.reporter.Info("Review request #%d created: %s\n", out.Request.ID, out.Request.AbsoluteURL)
	a.log.Info(ctx, "upload complete", map[string]interface{}{
		"request_id": out.Request.ID,
		"repository": a.session.Selected.Name,
	})

	if deps.BrowserOpener != nil && out.Request.AbsoluteURL != "" {
		if err := deps.BrowserOpener(out.Request.AbsoluteURL); err != nil {
			a.log.Warn(ctx, "could not open browser", map[string]interface{}{
				"url":   out.Request.AbsoluteURL,
				"error": err.Error(),
			})
		}
	}

	return nil
}

// slipFinder creates the optional CI slip finder. Failures only warn so that
// posting never depends on the slip store.
func slipFinder(ctx context.Context, a *app, deps *Dependencies) domain.SlipFinder {
	if !a.cfg.SlippyEnabled || deps.SlipFinderFactory == nil {
		return nil
	}

	finder, err := deps.SlipFinderFactory(a.cfg, a.log)
	if err != nil {
		a.log.Warn(ctx, "CI slip lookup disabled", map[string]interface{}{
			"error": err.Error(),
		})
		a.reporter.Verbose("CI slip lookup disabled: %v\n", err)
		return nil
	}
	return finder
}
