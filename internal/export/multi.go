package export

import (
	"context"
	"errors"

	"github.com/chrissnell/attendance/internal/attendance"
)

// Multi fans one run out to several writers. Every writer is attempted even
// if an earlier one fails.
type Multi []Writer

func (m Multi) Write(ctx context.Context, run Run, records []attendance.Record) error {
	var errs []error
	for _, w := range m {
		if err := w.Write(ctx, run, records); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, w := range m {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
