package sync

import "truck-ledger-go/internal/domain/ledger"

type State string

const (
	StateUninitialized State = "uninitialized"
	StateClean         State = "clean"
	StateDirty         State = "dirty"
)

type WarningCode string

const (
	WarningCodeLoadFailed   WarningCode = "load_failed"
	WarningCodeSaveFailed   WarningCode = "save_failed"
	WarningCodeDeleteFailed WarningCode = "delete_failed"
)

// Credential identifies the record owner and authorizes access to the remote
// copy. Token may be empty for backends that trust the caller.
type Credential struct {
	UserID string
	Token  string
}

type Warning struct {
	Code    WarningCode `json:"code"`
	Message string      `json:"message"`
}

// Outcome is what one interaction cycle leaves behind: the Record as the
// caller should render it and any persistence warnings raised on the way.
type Outcome struct {
	Record   ledger.Record
	State    State
	Loaded   bool
	Warnings []Warning
}
