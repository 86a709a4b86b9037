package service

import "errors"

var (
	ErrMemoNotFound       = errors.New("memo not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidDate        = errors.New("invalid date")
	ErrInvalidMonth       = errors.New("invalid month")
)
