package usecases

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/MyCarrier-DevOps/rbpost/internal/domain"
)

// rangeSeparator splits "<start>..<end>".
const rangeSeparator = ".."

// ParseRangeSpec parses the upload command's commit-range argument.
// With offsets false, "<start>..<end>" becomes a SymbolicRange (either side may be empty).
// With offsets true, both sides must be non-negative integers and an empty start means 0.
// An empty arg selects HEAD alone in either mode.
func ParseRangeSpec(arg string, offsets bool) (domain.RangeSpec, error) {
	start, end, _ := strings.Cut(arg, rangeSeparator)
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)

	if !offsets {
		return domain.SymbolicRange{Start: start, End: end}, nil
	}

	spec := domain.OffsetRange{}
	if start != "" {
		n, err := parseOffset(start)
		if err != nil {
			return nil, err
		}
		spec.Start = n
	}
	if end != "" {
		n, err := parseOffset(end)
		if err != nil {
			return nil, err
		}
		if n < spec.Start {
			return nil, fmt.Errorf("%w: end offset %d is before start offset %d", domain.ErrInvalidRange, n, spec.Start)
		}
		spec.End = &n
	}
	return spec, nil
}

func parseOffset(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: offset %q is not an integer", domain.ErrInvalidRange, s)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: offset %d is negative", domain.ErrInvalidRange, n)
	}
	return n, nil
}
