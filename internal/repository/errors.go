package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the repository.
// This abstracts away the underlying storage implementation from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert collides with a unique key, such as
// a second scenario at the same order within a campaign.
var ErrDuplicate = errors.New("duplicate record")
