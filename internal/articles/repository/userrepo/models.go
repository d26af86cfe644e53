package userrepo

import "errors"

var (
	ErrNotFound           = errors.New("user not found")
	ErrAleradyExists      = errors.New("a user with that username already exists")
	ErrEmailAlreadyExists = errors.New("a user with that email already exists")
)
