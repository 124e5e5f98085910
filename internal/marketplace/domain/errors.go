package domain

import "errors"

var (
	ErrProjectNotFound = errors.New("project not found")
	ErrUpstream        = errors.New("marketplace upstream request failed")
)
