package transaction

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrMaxTransactionsExceeded = errors.New("max transactions exceeded")
	ErrMaxPreviewTimeExceeded  = errors.New("max preview time exceeded")
	ErrConflict                = errors.New("transaction conflict")
	ErrRangeOutOfBounds        = errors.New("byte range out of bounds")
	ErrInvalidRange            = errors.New("invalid byte range")
	ErrInvalidPattern          = errors.New("invalid file pattern")
	ErrNoStore                 = errors.New("manager has no file store")
)

// MaxTransactionsExceededError reports that the queued transaction count
// went past the configured cap.
type MaxTransactionsExceededError struct {
	Threshold int
}

func (e *MaxTransactionsExceededError) Error() string {
	return fmt.Sprintf("max transactions reached: %d", e.Threshold)
}

func (e *MaxTransactionsExceededError) Is(target error) bool {
	return target == ErrMaxTransactionsExceeded
}

// MaxPreviewTimeExceededError reports that the stopwatch deadline passed.
type MaxPreviewTimeExceededError struct {
	Threshold time.Duration
}

func (e *MaxPreviewTimeExceededError) Error() string {
	return fmt.Sprintf("max preview time exceeded: %s", e.Threshold)
}

func (e *MaxPreviewTimeExceededError) Is(target error) bool {
	return target == ErrMaxPreviewTimeExceeded
}

// TransactionError reports two queued transactions whose overlap could not
// be resolved.
type TransactionError struct {
	New      Transaction
	Existing Transaction
	// Queue is a dump of the queued transactions when the conflict was found.
	Queue string
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("transaction conflict in %s: %s overlaps %s", e.New.FilePath(), e.New, e.Existing)
}

func (e *TransactionError) Is(target error) bool {
	return target == ErrConflict
}
