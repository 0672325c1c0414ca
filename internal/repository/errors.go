package repository

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrAlreadyProcessed    = errors.New("already processed")
	ErrNoKeysAvailable     = errors.New("no reward keys available")
	ErrDuplicate           = errors.New("duplicate")
)
