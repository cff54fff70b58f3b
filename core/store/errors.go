package store

import "fmt"

// NotFoundError reports an unknown entity ID.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// ConflictError reports a duplicate insert or a stale-version write.
type ConflictError struct {
	Entity string
	ID     string
}

func (e ConflictError) Error() string {
	return fmt.Sprintf("%s %s was modified concurrently", e.Entity, e.ID)
}
