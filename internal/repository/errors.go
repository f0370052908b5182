package repository

import "fmt"

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// IsTransient returns false as not found errors are permanent
func (e *NotFoundError) IsTransient() bool {
	return false
}

// InvalidFilterError reports a region or country filter that matches no city
type InvalidFilterError struct {
	Field string
	Value string
}

func (e *InvalidFilterError) Error() string {
	return fmt.Sprintf("no cities match %s %q", e.Field, e.Value)
}

func (e *InvalidFilterError) IsTransient() bool {
	return false
}
