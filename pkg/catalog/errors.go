package catalog

import "errors"

var (
	ErrTierNotFound             = errors.New("tier not found")
	ErrFeatureNotFound          = errors.New("feature not found in tier")
	ErrInvalidTierConfiguration = errors.New("invalid tier configuration")
	ErrFailedToLoadTiers        = errors.New("failed to load tier catalog")
)
