package git

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testLogger is a minimal logger for testing that doesn't output anything.
type testLogger struct{}

func (l *testLogger) Debug(_ context.Context, _ string, _ map[string]interface{}) {}
func (l *testLogger) Warn(_ context.Context, _ string, _ map[string]interface{})  {}

// setupEmptyRepo creates a temporary git repository on branch main with no commits.
func setupEmptyRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "symbolic-ref", "HEAD", "refs/heads/main")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	return dir
}

// setupTestRepo creates a repository with one commit on main and an origin remote.
func setupTestRepo(t *testing.T) string {
	t.Helper()

	dir := setupEmptyRepo(t)
	commitAt(t, dir, "Initial commit", 1_700_000_000)
	runGit(t, dir, "remote", "add", "origin", "git@git.example.com:teamA.git")
	return dir
}

// commitAt writes a change and commits it with fixed author and committer dates.
// Returns the new commit SHA.
func commitAt(t *testing.T, dir, message string, unix int64) string {
	t.Helper()

	name := strings.ReplaceAll(strings.ToLower(strings.Fields(message+" x")[0]), "/", "_")
	file := filepath.Join(dir, name+".txt")
	f, err := os.OpenFile(file, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = fmt.Fprintln(f, message)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	date := fmt.Sprintf("@%d +0000", unix)
	runGitEnv(t, dir, []string{"GIT_AUTHOR_DATE=" + date, "GIT_COMMITTER_DATE=" + date}, "add", ".")
	runGitEnv(t, dir, []string{"GIT_AUTHOR_DATE=" + date, "GIT_COMMITTER_DATE=" + date}, "commit", "-q", "-m", message)
	return gitOutput(t, dir, "rev-parse", "HEAD")
}

// mergeAt merges branch into the current branch with a merge commit at the given time.
func mergeAt(t *testing.T, dir, branch, message string, unix int64) string {
	t.Helper()

	date := fmt.Sprintf("@%d +0000", unix)
	runGitEnv(t, dir, []string{"GIT_AUTHOR_DATE=" + date, "GIT_COMMITTER_DATE=" + date},
		"merge", "-q", "--no-ff", "-m", message, branch)
	return gitOutput(t, dir, "rev-parse", "HEAD")
}

// runGit executes a git command in the given directory.
func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	runGitEnv(t, dir, nil, args...)
}

func runGitEnv(t *testing.T, dir string, env []string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Fatalf("git %v failed: %v\nOutput: %s", args, err, output)
	}
}

// gitOutput runs a git command and returns its trimmed stdout.
func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	output, err := cmd.Output()
	require.NoError(t, err, "git %v failed", args)
	return strings.TrimSpace(string(output))
}

// openRepo locates the repository at dir or fails the test.
func openRepo(t *testing.T, dir string) *GoGitRepository {
	t.Helper()
	repo, err := Locate(dir, &testLogger{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}
