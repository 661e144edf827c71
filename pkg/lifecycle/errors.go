package lifecycle

import "errors"

var (
	ErrUnknownOrderStatus = errors.New("unknown order status")

	ErrFailedToReassignTier = errors.New("failed to reassign tier")
	ErrFailedToSweep        = errors.New("failed to sweep expired cancellations")
)
