package archive

import "errors"

var (
	ErrFailedToAppend = errors.New("failed to append archive entry")
	ErrFailedToList   = errors.New("failed to list archive entries")
)
