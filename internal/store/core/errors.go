package core

import "errors"

var (
	ErrNotFound   = errors.New("not found")
	ErrConflict   = errors.New("conflict")
	ErrLoginTaken = errors.New("login already exists")
	ErrEmailTaken = errors.New("email already exists")
	ErrGroupInUse = errors.New("group is referenced by users")
	ErrInvalid    = errors.New("invalid")
)
