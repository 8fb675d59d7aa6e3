package registry

import "github.com/gymcore/license-server/pkg/pagination"

// ListQuery holds repository-level license listing inputs.
type ListQuery struct {
	Status string
	Limit  int
	Cursor *pagination.Cursor
}
