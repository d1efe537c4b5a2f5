package query

import (
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// Sentinel bounds substituted for absent or year-only date filters. An
// open side of a date range silently widens to these instead of erroring,
// so "from=1800" matches everything from 1800-01-01 on.
const (
	MinDateBound = "0001-01-01T00:00:00Z"
	MaxDateBound = "9999-12-31T23:59:59Z"
)

// ParseDateBound parses a hand-written date filter value into the Solr
// date bound format. Empty input yields the open sentinel of the given
// side; anything dateparse can read is accepted.
func ParseDateBound(param, value string, end bool) (string, error) {
	if value == "" {
		if end {
			return MaxDateBound, nil
		}
		return MinDateBound, nil
	}
	t, err := dateparse.ParseAny(value)
	if err != nil {
		return "", &ParamError{Param: param, Err: fmt.Errorf("unreadable date %q", value)}
	}
	return t.UTC().Format(time.RFC3339), nil
}
