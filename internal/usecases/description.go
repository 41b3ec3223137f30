package usecases

import (
	"fmt"
	"strings"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

// descriptionSeparator ends every commit block in a description.
const descriptionSeparator = "-----\n"

// BuildSummary returns the first line of the newest commit's message.
func BuildSummary(commits []domain.Commit) string {
	if len(commits) == 0 {
		return ""
	}
	line, _, _ := strings.Cut(commits[0].Message, "\n")
	return strings.TrimSpace(line)
}

// BuildDescription concatenates every commit as "<author> - <id>", the full message
// and a separator line, newest first.
func BuildDescription(commits []domain.Commit) string {
	var b strings.Builder
	for _, c := range commits {
		fmt.Fprintf(&b, "%s - %s\n", c.AuthorName, c.ID)
		b.WriteString(c.Message)
		if !strings.HasSuffix(c.Message, "\n") {
			b.WriteString("\n")
		}
		b.WriteString(descriptionSeparator)
	}
	return b.String()
}
