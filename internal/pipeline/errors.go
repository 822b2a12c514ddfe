package pipeline

import "fmt"

// UnitError attributes a completion failure to the work unit that caused it.
type UnitError struct {
	Index int
	Page  int
	Err   error
}

func (e *UnitError) Error() string {
	return fmt.Sprintf("unit %d (page %d): %v", e.Index, e.Page, e.Err)
}

func (e *UnitError) Unwrap() error {
	return e.Err
}
