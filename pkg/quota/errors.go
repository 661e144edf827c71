package quota

import "errors"

var (
	ErrRecordNotFound = errors.New("quota record not found")
	ErrQuotaExceeded  = errors.New("quota exceeded")

	ErrFailedToResolveTier = errors.New("failed to resolve user tier")
	ErrFailedToLoadRecord  = errors.New("failed to load quota record")
	ErrFailedToSaveRecord  = errors.New("failed to save quota record")
)
