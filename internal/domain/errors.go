package domain

import "errors"

var (
	ErrInvalidSpecID     = errors.New("invalid spec id")
	ErrInvalidTaskCounts = errors.New("invalid task counts")
	ErrInvalidProfile    = errors.New("invalid profile")
)
