package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

// mockLogger implements the Logger interface for testing.
type mockLogger struct{}

func (m *mockLogger) Info(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Debug(_ context.Context, _ string, _ map[string]interface{})          {}
func (m *mockLogger) Warn(_ context.Context, _ string, _ map[string]interface{})           {}
func (m *mockLogger) Error(_ context.Context, _ string, _ error, _ map[string]interface{}) {}

// mockReporter records every line per channel.
type mockReporter struct {
	info    []string
	verbose []string
	errors  []string
}

func (m *mockReporter) Info(format string, args ...any) {
	m.info = append(m.info, fmt.Sprintf(format, args...))
}

func (m *mockReporter) Verbose(format string, args ...any) {
	m.verbose = append(m.verbose, fmt.Sprintf(format, args...))
}

func (m *mockReporter) Error(format string, args ...any) {
	m.errors = append(m.errors, fmt.Sprintf(format, args...))
}

func (m *mockReporter) verboseText() string { return strings.Join(m.verbose, "") }

// mockGitRepo implements domain.LocalGitRepository for testing.
type mockGitRepo struct {
	root       string
	remotes    []domain.RemoteDescriptor
	remotesErr error
	rng        *domain.CommitRange
	rangeErr   error
	gotSpec    domain.RangeSpec
	tracking   string
}

func (m *mockGitRepo) Root() string { return m.root }

func (m *mockGitRepo) Remotes(_ context.Context) ([]domain.RemoteDescriptor, error) {
	return m.remotes, m.remotesErr
}

func (m *mockGitRepo) ResolveRange(_ context.Context, spec domain.RangeSpec) (*domain.CommitRange, error) {
	m.gotSpec = spec
	return m.rng, m.rangeErr
}

func (m *mockGitRepo) TrackingBranch(_ context.Context) (string, bool) {
	return m.tracking, m.tracking != ""
}

func (m *mockGitRepo) Close() error { return nil }

// mockReviewClient implements domain.ReviewClient for testing.
type mockReviewClient struct {
	repos       []domain.ServerRepository
	listErr     error
	created     *domain.ReviewRequest
	createErr   error
	uploadErr   error
	draftErr    error
	user        string
	userErr     error
	createCalls []int
	uploads     [][]byte
	drafts      []domain.Draft
}

func (m *mockReviewClient) ListRepositories(_ context.Context) ([]domain.ServerRepository, error) {
	return m.repos, m.listErr
}

func (m *mockReviewClient) CreateReviewRequest(_ context.Context, repositoryID int) (*domain.ReviewRequest, error) {
	m.createCalls = append(m.createCalls, repositoryID)
	if m.createErr != nil {
		return nil, m.createErr
	}
	return m.created, nil
}

func (m *mockReviewClient) UploadDiff(_ context.Context, _ int, diff []byte) error {
	m.uploads = append(m.uploads, diff)
	return m.uploadErr
}

func (m *mockReviewClient) UpdateDraft(_ context.Context, _ int, draft domain.Draft) error {
	m.drafts = append(m.drafts, draft)
	return m.draftErr
}

func (m *mockReviewClient) CurrentUser(_ context.Context) (string, error) {
	return m.user, m.userErr
}

// mockDiffer implements domain.DiffGenerator for testing.
type mockDiffer struct {
	diff     []byte
	diffErr  error
	stats    domain.DiffStats
	statsErr error
	gotBase  string
	gotHead  string
	gotDir   string
}

func (m *mockDiffer) Diff(_ context.Context, dir, base, head string) ([]byte, error) {
	m.gotDir, m.gotBase, m.gotHead = dir, base, head
	return m.diff, m.diffErr
}

func (m *mockDiffer) Stats(_ []byte) (domain.DiffStats, error) {
	return m.stats, m.statsErr
}

// mockSlipFinder implements domain.SlipFinder for testing.
type mockSlipFinder struct {
	id      string
	err     error
	gotRepo string
}

func (m *mockSlipFinder) FindByCommits(_ context.Context, repository string, _ []string) (string, error) {
	m.gotRepo = repository
	return m.id, m.err
}

func (m *mockSlipFinder) Close() error { return nil }
