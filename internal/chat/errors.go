package chat

import "errors"

var (
	ErrEmptyName      = errors.New("empty name")
	ErrNameTaken      = errors.New("name already taken")
	ErrLoginFailed    = errors.New("login failed")
	ErrFetchFailed    = errors.New("fetch failed")
	ErrEmptyMessage   = errors.New("empty message")
	ErrSessionExpired = errors.New("session expired")
)
