package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
	"github.com/MyCarrier-DevOps/rbpost/internal/usecases"
)

func newUpdateCmd(deps *Dependencies) *cobra.Command {
	updateCmd := &cobra.Command{
		Use:   "update <request-id> [<start>..<end>]",
		Short: "Update an existing review request (not implemented)",
		Long: `update will post a new diff for an existing review request, taking the
same range arguments and --offset flag as upload. It is not implemented yet and always fails.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUpdate(cmd, args, deps)
		},
	}

	updateCmd.Flags().BoolVarP(&offsets, "offset", "o", false,
		"Interpret the range as offsets from HEAD")

	return updateCmd
}

func runUpdate(cmd *cobra.Command, args []string, deps *Dependencies) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	id, err := strconv.Atoi(args[0])
	if err != nil || id <= 0 {
		return fmt.Errorf("invalid review request id %q", args[0])
	}
	if len(args) > 1 {
		if _, err := usecases.ParseRangeSpec(args[1], offsets); err != nil {
			return err
		}
	}

	a, err := bootstrap(ctx, deps)
	if err != nil {
		return err
	}
	defer a.close(ctx)

	a.log.Warn(ctx, "update requested", map[string]interface{}{"request_id": id})
	return fmt.Errorf("update of review request #%d: %w", id, domain.ErrNotImplemented)
}
