package usecases

import (
	"regexp"
	"strings"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

// originRemote is preferred when several remotes carry an owner/repo path.
const originRemote = "origin"

var (
	// https://github.com/owner/repo.git
	// https://github.com/owner/repo
	httpsURLPattern = regexp.MustCompile(`^https?://[^/]+/([^/]+)/([^/]+?)(?:\.git)?$`)

	// ssh://git@github.com/owner/repo.git
	sshSchemeURLPattern = regexp.MustCompile(`^ssh://(?:[^@/]+@)?[^/]+/([^/]+)/([^/]+?)(?:\.git)?$`)

	// git@github.com:owner/repo.git
	// git@github.com:owner/repo
	scpURLPattern = regexp.MustCompile(`^[^@/]+@[^:/]+:([^/]+)/([^/]+?)(?:\.git)?$`)
)

// ParseOwnerRepo extracts "owner/repo" from a remote URL.
func ParseOwnerRepo(url string) (string, bool) {
	url = strings.TrimSpace(url)
	for _, p := range []*regexp.Regexp{httpsURLPattern, sshSchemeURLPattern, scpURLPattern} {
		if m := p.FindStringSubmatch(url); len(m) == 3 {
			return m[1] + "/" + m[2], true
		}
	}
	return "", false
}

// SlipRepository returns the repository key CI slips are stored under: the owner/repo
// of the origin remote, or of the first remote that has one.
func SlipRepository(remotes []domain.RemoteDescriptor) (string, bool) {
	for _, r := range remotes {
		if r.Name != originRemote {
			continue
		}
		if repo, ok := ParseOwnerRepo(r.URL); ok {
			return repo, true
		}
	}
	for _, r := range remotes {
		if repo, ok := ParseOwnerRepo(r.URL); ok {
			return repo, true
		}
	}
	return "", false
}
