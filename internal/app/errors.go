package app

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrTitleRequired = errors.New("title is required")
)
