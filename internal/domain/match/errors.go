package match

import "errors"

var (
	ErrUnresolvable = errors.New("match: snapshot has neither time nor teams")
	ErrInvalidScore = errors.New("match: invalid score")
	ErrNotFound     = errors.New("match: not found")
	// ErrConflict marks a transient write conflict; the whole batch may be retried.
	ErrConflict = errors.New("match: transient write conflict")
)
