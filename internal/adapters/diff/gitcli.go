// Package diff produces and summarizes the unified diffs uploaded for review.
package diff

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"

	"github.com/bluekeyes/go-gitdiff/gitdiff"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

// EmptyTree is the hash of git's empty tree, used as the base for root commits.
const EmptyTree = "4b825dc642cb6eb9a060e54bf8d69288fbee4904"

// GitCLI generates diffs by running the git executable.
// go-git cannot emit --full-index patches, which the review server needs
// to locate the original blobs.
type GitCLI struct {
	// Binary is the git executable; defaults to "git".
	Binary string
}

// NewGitCLI creates a GitCLI using the git found on PATH.
func NewGitCLI() *GitCLI {
	return &GitCLI{Binary: "git"}
}

// diffArgs pin the output format so user configuration (color.diff, diff.noprefix,
// diff.external, diff.mnemonicPrefix) cannot change the uploaded patch.
var diffArgs = []string{
	"diff",
	"--no-color",
	"--no-ext-diff",
	"--src-prefix=a/",
	"--dst-prefix=b/",
	"--full-index",
}

// Diff returns `git diff --full-index base head` run in dir.
// An empty base diffs head against the empty tree.
func (g *GitCLI) Diff(ctx context.Context, dir, base, head string) ([]byte, error) {
	if base == "" {
		base = EmptyTree
	}

	var stdout, stderr bytes.Buffer
	args := append(append([]string{}, diffArgs...), base, head)
	cmd := exec.CommandContext(ctx, g.Binary, args...)
	cmd.Dir = dir
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git diff %s..%s: %w: %s", short(base), short(head), err, bytes.TrimSpace(stderr.Bytes()))
	}
	return stdout.Bytes(), nil
}

// Stats parses a unified diff and counts files and changed lines.
func (g *GitCLI) Stats(raw []byte) (domain.DiffStats, error) {
	files, _, err := gitdiff.Parse(bytes.NewReader(raw))
	if err != nil {
		return domain.DiffStats{}, fmt.Errorf("parsing diff: %w", err)
	}

	stats := domain.DiffStats{Files: len(files)}
	for _, f := range files {
		for _, frag := range f.TextFragments {
			for _, line := range frag.Lines {
				switch line.Op {
				case gitdiff.OpAdd:
					stats.Added++
				case gitdiff.OpDelete:
					stats.Deleted++
				}
			}
		}
	}
	return stats, nil
}

func short(sha string) string {
	if len(sha) > 12 {
		return sha[:12]
	}
	return sha
}
