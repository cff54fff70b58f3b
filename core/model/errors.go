package model

import "fmt"

// ValidationError reports malformed input, e.g. an unknown enum value or a
// GPS ping with missing coordinates.
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
