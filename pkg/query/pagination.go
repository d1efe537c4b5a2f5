package query

import (
	"fmt"
	"strconv"
)

// Pagination defaults. Pages are 1-indexed on the wire.
const (
	DefaultPage = 1
	DefaultSize = 30
	MaxSize     = 1000
)

// ParamError reports an unusable query parameter. Handlers translate it
// into a 400 response.
type ParamError struct {
	Param string
	Err   error
}

func (e *ParamError) Error() string {
	return fmt.Sprintf("parameter %s: %v", e.Param, e.Err)
}

func (e *ParamError) Unwrap() error {
	return e.Err
}

// Pagination is the page window of a list request.
type Pagination struct {
	Page int
	Size int
}

// ParsePagination reads the page and size parameters, applying defaults
// for absent values.
func ParsePagination(get func(string) string) (Pagination, error) {
	p := Pagination{Page: DefaultPage, Size: DefaultSize}

	if raw := get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return Pagination{}, &ParamError{Param: "page", Err: fmt.Errorf("must be a positive integer")}
		}
		p.Page = page
	}
	if raw := get("size"); raw != "" {
		size, err := strconv.Atoi(raw)
		if err != nil || size < 1 {
			return Pagination{}, &ParamError{Param: "size", Err: fmt.Errorf("must be a positive integer")}
		}
		if size > MaxSize {
			size = MaxSize
		}
		p.Size = size
	}
	return p, nil
}

// Offset converts the 1-indexed page into the 0-indexed document offset.
func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Size
}
