package agent

import "errors"

var (
	// ErrMissingCollaborator is returned by New when a navigator, evaluator
	// or detection config is not supplied.
	ErrMissingCollaborator = errors.New("agent: missing collaborator")

	// ErrNoWaypoints is returned by WithStartWaypoint for an empty route.
	ErrNoWaypoints = errors.New("agent: no waypoints")
)
