package identity

import "errors"

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrNoIdentification = errors.New("no identification found in event")

	ErrFailedToLoadUser = errors.New("failed to load user")
	ErrFailedToSaveUser = errors.New("failed to save user")
)
