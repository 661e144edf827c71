package billing

import "errors"

var (
	ErrUnparseablePayload = errors.New("webhook payload is not valid JSON")
	ErrMissingTransaction = errors.New("event carries no transaction identifier")

	ErrFailedToLoadEntry = errors.New("failed to load billing ledger entry")
	ErrFailedToSaveEntry = errors.New("failed to save billing ledger entry")
)
