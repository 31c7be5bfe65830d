package splitter

import "errors"

// Stage-level failure sentinels. SplitFile wraps these with the
// offending path or component so callers can branch with errors.Is
// while still logging the detail.
var (
	ErrAnalysisFailed   = errors.New("analysis failed")
	ErrBackupFailed     = errors.New("backup failed")
	ErrWriteFailed      = errors.New("component write failed")
	ErrValidationFailed = errors.New("component validation failed")
	ErrCommitFailed     = errors.New("commit failed")
	ErrTimeoutExceeded  = errors.New("processing budget exceeded")
)
