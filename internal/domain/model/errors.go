package model

import "errors"

// Sentinel kinds for snapshot validation errors.
var (
	ErrInvalidTournament = errors.New("invalid tournament")
	ErrInvalidAthlete    = errors.New("invalid athlete")
	ErrInvalidCategory   = errors.New("invalid weight category")
	ErrInvalidAttempt    = errors.New("invalid attempt")
)
