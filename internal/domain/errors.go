package domain

import "errors"

// ErrNotFound is the root of every "referenced record is absent" error.
// Repositories wrap it so callers can match with errors.Is.
var ErrNotFound = errors.New("not found")
