package services

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyAnswered = errors.New("question already answered")
	ErrInvalidID       = errors.New("invalid id")
	ErrUnauthorized    = errors.New("unauthorized")
)
