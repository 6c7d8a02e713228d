package competitor

import "errors"

// Sentinel errors for competitor loading.
var (
	ErrLoadCompetitor = errors.New("load competitor")
	ErrTeamSettings   = errors.New("load team settings")
)
