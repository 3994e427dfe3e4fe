package validation

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 1000
)

type Pagination struct {
	Limit  int `validate:"min=1,max=1000"`
	Offset int `validate:"min=0"`
}

// ValidatePagination parses limit/offset query values. Empty values fall back to
// the defaults (limit 50, offset 0).
func ValidatePagination(limitStr, offsetStr string) (Pagination, []string) {
	p := Pagination{Limit: DefaultLimit}
	var errs []string

	if s := strings.TrimSpace(limitStr); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("limit must be an integer, got %q", s))
		} else {
			p.Limit = limit
		}
	}
	if s := strings.TrimSpace(offsetStr); s != "" {
		offset, err := strconv.Atoi(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("offset must be an integer, got %q", s))
		} else {
			p.Offset = offset
		}
	}
	if len(errs) > 0 {
		return Pagination{}, errs
	}

	if msgs := collect("", validate.Struct(p)); len(msgs) > 0 {
		return Pagination{}, msgs
	}
	return p, nil
}
