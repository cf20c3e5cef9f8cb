package practice

import "errors"

// Engine error taxonomy. Handlers map these onto HTTP statuses: conflicts
// to 409, not-found to 404 and precondition failures to 412. Ownership
// violations deliberately surface as not-found so session IDs leak nothing.
var (
	ErrSessionInProgress  = errors.New("a session is already in progress")
	ErrSessionNotFound    = errors.New("session not found")
	ErrItemNotInSession   = errors.New("item is not part of this session")
	ErrSessionFinished    = errors.New("session is already finished")
	ErrSessionNotFinished = errors.New("session is not finished yet")
	ErrNoEligibleItems    = errors.New("no items match the requested filters")
	ErrNoReviewItems      = errors.New("nothing to review for the requested filters")
	ErrFactorMissing      = errors.New("tuning factor is not configured")
)
