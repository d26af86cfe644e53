package tagrepo

import "errors"

var (
	ErrNotFound      = errors.New("tag not found")
	ErrAlreadyExists = errors.New("tag with this name already exists")
)
