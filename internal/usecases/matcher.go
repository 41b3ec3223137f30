// Package usecases contains the application business logic.
// This package orchestrates domain entities and interfaces to fulfill use cases.
package usecases

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

// Logger defines the logging interface required by the use cases.
// This abstracts the logger dependency to avoid coupling to a specific implementation.
type Logger interface {
	Info(ctx context.Context, msg string, fields map[string]interface{})
	Debug(ctx context.Context, msg string, fields map[string]interface{})
	Warn(ctx context.Context, msg string, fields map[string]interface{})
	Error(ctx context.Context, msg string, err error, fields map[string]interface{})
}

// RemotePattern builds the pattern that extracts a repository identifier from remote URLs
// on gitHost. Accepted spellings after the host are ":", ":/" and "/":
//
//	git@git.example.com:teamA.git     -> teamA
//	ssh://git.example.com:/teamA.git  -> teamA
//	https://git.example.com/teamA.git -> teamA
func RemotePattern(gitHost string) *regexp.Regexp {
	return regexp.MustCompile(`(?:^|[@/])` + regexp.QuoteMeta(gitHost) + `(?::/?|/)(.+)\.git`)
}

// ExtractIdentifier returns the repository identifier of url, or false when url
// is not a repository on the pattern's host.
func ExtractIdentifier(pattern *regexp.Regexp, url string) (string, bool) {
	m := pattern.FindStringSubmatch(url)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Matcher selects the review-server repository that corresponds to the local repository.
type Matcher struct {
	pattern  *regexp.Regexp
	reporter domain.Reporter
	logger   Logger
}

// NewMatcher creates a Matcher for remotes hosted on gitHost.
func NewMatcher(gitHost string, reporter domain.Reporter, log Logger) *Matcher {
	return &Matcher{
		pattern:  RemotePattern(gitHost),
		reporter: reporter,
		logger:   log,
	}
}

// LocalIdentifiers returns the set of repository identifiers found in the repository's remotes.
// Returns domain.ErrNoRemoteIdentifiers when no remote points at the git host.
func (m *Matcher) LocalIdentifiers(ctx context.Context, repo domain.LocalGitRepository) (map[string]struct{}, error) {
	remotes, err := repo.Remotes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read remotes: %w", err)
	}

	ids := make(map[string]struct{})
	for _, remote := range remotes {
		id, ok := ExtractIdentifier(m.pattern, remote.URL)
		if !ok {
			m.logger.Debug(ctx, "remote does not match git host", map[string]interface{}{
				"remote": remote.Name,
				"url":    remote.URL,
			})
			continue
		}
		ids[id] = struct{}{}
		m.reporter.Verbose("%s\t%s -> %s\n", remote.Name, remote.URL, id)
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: either no remotes are configured or none of them are hosted on the configured git host",
			domain.ErrNoRemoteIdentifiers)
	}
	return ids, nil
}

// Select returns the first repository in serverRepos whose name is in localIDs.
// The server's order is the tie-break when several repositories match.
// Returns domain.ErrNoMatch when the intersection is empty.
func (m *Matcher) Select(
	ctx context.Context,
	localIDs map[string]struct{},
	serverRepos []domain.ServerRepository,
) (*domain.ServerRepository, error) {
	m.reporter.Info("Searching for: %v\n", sortedKeys(localIDs))

	for _, candidate := range serverRepos {
		if _, ok := localIDs[candidate.Name]; !ok {
			continue
		}
		m.reporter.Info("Found matching repository:\n\n[%d] %s (%s) <- %s\n",
			candidate.ID, candidate.Name, candidate.Tool, candidate.Path)
		m.logger.Info(ctx, "selected review server repository", map[string]interface{}{
			"repository_id":   candidate.ID,
			"repository_name": candidate.Name,
		})
		selected := candidate
		return &selected, nil
	}

	return nil, fmt.Errorf("%w: searched %d server repositories for %v",
		domain.ErrNoMatch, len(serverRepos), sortedKeys(localIDs))
}

// Match extracts identifiers from repo's remotes, queries client for the server's
// repositories and selects the first match.
func (m *Matcher) Match(
	ctx context.Context,
	repo domain.LocalGitRepository,
	client domain.ReviewClient,
) (*domain.ServerRepository, error) {
	localIDs, err := m.LocalIdentifiers(ctx, repo)
	if err != nil {
		return nil, err
	}

	m.reporter.Info("Querying server for repositories...")
	serverRepos, err := client.ListRepositories(ctx)
	if err != nil {
		m.reporter.Info("\n")
		return nil, fmt.Errorf("failed to list server repositories: %w", err)
	}
	m.reporter.Info("[%d repos]\n", len(serverRepos))

	return m.Select(ctx, localIDs, serverRepos)
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
