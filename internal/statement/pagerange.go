package statement

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrPageRange is wrapped by every page selection error.
var ErrPageRange = errors.New("invalid page range")

// ParsePageRange parses a list such as "1,3-5" into ascending unique page
// numbers. An empty string selects nothing.
func ParsePageRange(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	seen := map[int]bool{}
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		lo, hi, found := strings.Cut(part, "-")
		first, err := parsePage(lo)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrPageRange, part)
		}
		last := first
		if found {
			if last, err = parsePage(hi); err != nil {
				return nil, fmt.Errorf("%w: %q", ErrPageRange, part)
			}
		}
		if last < first {
			return nil, fmt.Errorf("%w: %q ends before it starts", ErrPageRange, part)
		}
		for p := first; p <= last; p++ {
			seen[p] = true
		}
	}
	pages := make([]int, 0, len(seen))
	for p := range seen {
		pages = append(pages, p)
	}
	sort.Ints(pages)
	return pages, nil
}

func parsePage(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < 1 {
		return 0, fmt.Errorf("page %d out of range", n)
	}
	return n, nil
}
