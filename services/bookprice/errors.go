package bookprice

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound    = errors.New("book not found")
	ErrInvalidISBN = errors.New("invalid isbn")
	// ErrInvalidRequest is returned for malformed arguments other than the
	// ISBN, like an empty query or an unknown store.
	ErrInvalidRequest = errors.New("invalid request")
	// ErrStoreUnavailable wraps every failure of the underlying store, the
	// operation may succeed when retried.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrSourcesUnavailable is returned by Refresh when no source yielded
	// the book again, the stored records are kept.
	ErrSourcesUnavailable = errors.New("sources unavailable")
)

func invalidRequest(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether err is transient.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable) || errors.Is(err, ErrSourcesUnavailable)
}

func (s *Service) storeFailure(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	s.tel.ReportBroken(report_store, op, err)
	return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
}
