package service

import "errors"

var (
	// ErrInvalidAction is returned for an unknown simulation action
	ErrInvalidAction = errors.New("invalid simulation action")
	// ErrSimulationNotRunning is returned when a tick is requested on a stopped simulation
	ErrSimulationNotRunning = errors.New("simulation not running")
	// ErrValidation wraps every rejected input
	ErrValidation = errors.New("validation failed")
)
