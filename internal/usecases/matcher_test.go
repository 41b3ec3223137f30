package usecases

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

func TestExtractIdentifier(t *testing.T) {
	pattern := RemotePattern("git.example.com")

	tests := []struct {
		name   string
		url    string
		wantID string
		wantOK bool
	}{
		{name: "scp style host:path", url: "git@git.example.com:teamA.git", wantID: "teamA", wantOK: true},
		{name: "host:/path", url: "ssh://git@git.example.com:/teamA.git", wantID: "teamA", wantOK: true},
		{name: "host/path", url: "git.example.com/teamA.git", wantID: "teamA", wantOK: true},
		{name: "https host/path", url: "https://git.example.com/tools/build.git", wantID: "tools/build", wantOK: true},
		{name: "no .git suffix", url: "https://git.example.com/teamA", wantOK: false},
		{name: "other host", url: "git@github.com:teamA.git", wantOK: false},
		{name: "host lookalike with dot wildcard", url: "git@gitXexample.com:teamA.git", wantOK: false},
		{name: "host lookalike with prefix", url: "git@evilgit.example.com:teamA.git", wantOK: false},
		{name: "host lookalike in https path", url: "https://evilgit.example.com/teamA.git", wantOK: false},
		{name: "empty", url: "", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, ok := ExtractIdentifier(pattern, tt.url)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestMatcher_Match(t *testing.T) {
	serverRepos := []domain.ServerRepository{
		{ID: 1, Name: "teamA", Tool: "Git", Path: "git@git.example.com:teamA.git"},
		{ID: 2, Name: "teamB", Tool: "Git", Path: "git@git.example.com:teamB.git"},
		{ID: 3, Name: "teamC", Tool: "Git", Path: "git@git.example.com:teamC.git"},
	}

	tests := []struct {
		name    string
		remotes []domain.RemoteDescriptor
		repos   []domain.ServerRepository
		wantID  int
		wantErr error
	}{
		{
			name:    "single remote matches first repo",
			remotes: []domain.RemoteDescriptor{{Name: "origin", URL: "git.example.com/teamA.git"}},
			repos:   serverRepos,
			wantID:  1,
		},
		{
			name: "server order breaks ties",
			remotes: []domain.RemoteDescriptor{
				{Name: "origin", URL: "git@git.example.com:teamC.git"},
				{Name: "upstream", URL: "https://git.example.com/teamB.git"},
			},
			repos:  serverRepos,
			wantID: 2,
		},
		{
			name: "different spellings of the same repository collapse",
			remotes: []domain.RemoteDescriptor{
				{Name: "origin", URL: "git@git.example.com:teamB.git"},
				{Name: "mirror", URL: "https://git.example.com/teamB.git"},
			},
			repos:  serverRepos,
			wantID: 2,
		},
		{
			name: "non-matching remotes are ignored",
			remotes: []domain.RemoteDescriptor{
				{Name: "github", URL: "git@github.com:teamA.git"},
				{Name: "origin", URL: "git@git.example.com:teamC.git"},
			},
			repos:  serverRepos,
			wantID: 3,
		},
		{
			name:    "empty intersection",
			remotes: []domain.RemoteDescriptor{{Name: "origin", URL: "git@git.example.com:teamZ.git"}},
			repos:   serverRepos,
			wantErr: domain.ErrNoMatch,
		},
		{
			name:    "server knows no repositories",
			remotes: []domain.RemoteDescriptor{{Name: "origin", URL: "git@git.example.com:teamA.git"}},
			repos:   nil,
			wantErr: domain.ErrNoMatch,
		},
		{
			name:    "no remote on git host",
			remotes: []domain.RemoteDescriptor{{Name: "origin", URL: "git@github.com:teamA.git"}},
			repos:   serverRepos,
			wantErr: domain.ErrNoRemoteIdentifiers,
		},
		{
			name:    "no remotes at all",
			remotes: nil,
			repos:   serverRepos,
			wantErr: domain.ErrNoRemoteIdentifiers,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			repo := &mockGitRepo{remotes: tt.remotes}
			client := &mockReviewClient{repos: tt.repos}
			matcher := NewMatcher("git.example.com", &mockReporter{}, &mockLogger{})

			// Act
			got, err := matcher.Match(context.Background(), repo, client)

			// Assert
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, tt.wantID, got.ID)
		})
	}
}

func TestMatcher_Match_ListError(t *testing.T) {
	repo := &mockGitRepo{remotes: []domain.RemoteDescriptor{{Name: "origin", URL: "git@git.example.com:teamA.git"}}}
	client := &mockReviewClient{listErr: errors.New("connection refused")}
	matcher := NewMatcher("git.example.com", &mockReporter{}, &mockLogger{})

	got, err := matcher.Match(context.Background(), repo, client)

	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "failed to list server repositories")
}

func TestMatcher_Match_RemotesError(t *testing.T) {
	repo := &mockGitRepo{remotesErr: errors.New("bad config")}
	matcher := NewMatcher("git.example.com", &mockReporter{}, &mockLogger{})

	got, err := matcher.Match(context.Background(), repo, &mockReviewClient{})

	require.Error(t, err)
	assert.Nil(t, got)
	assert.Contains(t, err.Error(), "failed to read remotes")
}

func TestMatcher_Select_ReportsSelection(t *testing.T) {
	reporter := &mockReporter{}
	matcher := NewMatcher("git.example.com", reporter, &mockLogger{})

	got, err := matcher.Select(context.Background(),
		map[string]struct{}{"teamA": {}},
		[]domain.ServerRepository{{ID: 1, Name: "teamA", Tool: "Git", Path: "/srv/teamA.git"}},
	)

	require.NoError(t, err)
	assert.Equal(t, 1, got.ID)
	assert.Contains(t, reporter.info[len(reporter.info)-1], "[1] teamA (Git) <- /srv/teamA.git")
}
