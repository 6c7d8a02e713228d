package service

import "errors"

var (
	// ErrCompetitorMismatch means the supplied competitors differ from the ones
	// stored in current_competition.json.
	ErrCompetitorMismatch = errors.New("competitors do not match current competition")

	// ErrNotPrepared is returned by Run before Prepare has succeeded.
	ErrNotPrepared = errors.New("competition not prepared")

	// ErrMissingDependency is returned by Run when no spawner or broadcaster was configured.
	ErrMissingDependency = errors.New("missing dependency")
)
