package sync

import "errors"

var (
	ErrMissingSession  = errors.New("session key is required")
	ErrMissingUserID   = errors.New("credential user id is required")
	ErrUserMismatch    = errors.New("credential user does not own this session")
	ErrResetNotConfirm = errors.New("reset must be confirmed")
)
