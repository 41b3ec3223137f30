package diff

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

const sampleDiff = `diff --git a/README.md b/README.md
index 1111111111111111111111111111111111111111..2222222222222222222222222222222222222222 100644
--- a/README.md
+++ b/README.md
@@ -1,3 +1,4 @@
 # Project
-old line
+new line
+another line
 end
diff --git a/main.go b/main.go
new file mode 100644
index 0000000000000000000000000000000000000000..3333333333333333333333333333333333333333
--- /dev/null
+++ b/main.go
@@ -0,0 +1 @@
+package main
`

func TestGitCLI_Stats(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want domain.DiffStats
	}{
		{name: "two files", raw: sampleDiff, want: domain.DiffStats{Files: 2, Added: 3, Deleted: 1}},
		{name: "empty", raw: "", want: domain.DiffStats{}},
		{name: "not a diff", raw: "hello\nworld\n", want: domain.DiffStats{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewGitCLI().Stats([]byte(tt.raw))

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGitCLI_Diff(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	// Arrange
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	first := commitFile(t, dir, "a.txt", "one\n", "first")
	second := commitFile(t, dir, "a.txt", "one\ntwo\n", "second")
	differ := NewGitCLI()
	fullIndex := regexp.MustCompile(`(?m)^index [0-9a-f]{40}\.\.[0-9a-f]{40}`)

	t.Run("between commits", func(t *testing.T) {
		out, err := differ.Diff(context.Background(), dir, first, second)

		require.NoError(t, err)
		assert.Contains(t, string(out), "+two")
		assert.Regexp(t, fullIndex, string(out))

		stats, err := differ.Stats(out)
		require.NoError(t, err)
		assert.Equal(t, domain.DiffStats{Files: 1, Added: 1}, stats)
	})

	t.Run("root commit against empty tree", func(t *testing.T) {
		out, err := differ.Diff(context.Background(), dir, "", first)

		require.NoError(t, err)
		assert.Contains(t, string(out), "new file mode")
		assert.Contains(t, string(out), "+one")
	})

	t.Run("same commit is empty", func(t *testing.T) {
		out, err := differ.Diff(context.Background(), dir, second, second)

		require.NoError(t, err)
		assert.Empty(t, strings.TrimSpace(string(out)))
	})

	t.Run("unknown revision", func(t *testing.T) {
		_, err := differ.Diff(context.Background(), dir, "deadbeef", second)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "git diff deadbeef..")
	})
}

func TestGitCLI_Diff_IgnoresUserDiffConfig(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}

	// Arrange
	dir := t.TempDir()
	runGit(t, dir, "init", "-q")
	runGit(t, dir, "config", "user.email", "test@example.com")
	runGit(t, dir, "config", "user.name", "Test User")
	runGit(t, dir, "config", "commit.gpgsign", "false")
	first := commitFile(t, dir, "f.txt", "one\n", "first")
	second := commitFile(t, dir, "f.txt", "one\ntwo\n", "second")

	runGit(t, dir, "config", "color.diff", "always")
	runGit(t, dir, "config", "color.ui", "always")
	runGit(t, dir, "config", "diff.noprefix", "true")
	runGit(t, dir, "config", "diff.mnemonicPrefix", "true")
	runGit(t, dir, "config", "diff.external", "echo")
	differ := NewGitCLI()

	// Act
	out, err := differ.Diff(context.Background(), dir, first, second)

	// Assert
	require.NoError(t, err)
	text := string(out)
	assert.NotContains(t, text, "\x1b[")
	assert.True(t, strings.HasPrefix(text, "diff --git a/f.txt b/f.txt\n"), text)
	assert.Contains(t, text, "--- a/f.txt\n+++ b/f.txt\n")
	assert.Contains(t, text, "+two")

	stats, err := differ.Stats(out)
	require.NoError(t, err)
	assert.Equal(t, domain.DiffStats{Files: 1, Added: 1}, stats)
}

func TestShort(t *testing.T) {
	assert.Equal(t, "4b825dc642cb", short(EmptyTree))
	assert.Equal(t, "HEAD", short("HEAD"))
}

func commitFile(t *testing.T, dir, name, content, message string) string {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	runGit(t, dir, "add", name)
	runGit(t, dir, "commit", "-q", "-m", message)
	return gitOutput(t, dir, "rev-parse", "HEAD")
}

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	gitOutput(t, dir, args...)
}

func gitOutput(t *testing.T, dir string, args ...string) string {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, out)
	return strings.TrimSpace(string(out))
}
