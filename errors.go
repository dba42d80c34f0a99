package tensorpack

import (
	"errors"
	"fmt"
)

var (
	// ErrWriterClosed is returned when Pack or Finalize is called on a
	// writer that has already been finalized or closed.
	ErrWriterClosed = errors.New("tensorpack: writer is closed")

	// ErrReaderClosed is returned when Load is called on a closed reader.
	ErrReaderClosed = errors.New("tensorpack: reader is closed")

	// ErrCorruptFile is returned at open time when the file size does not
	// match what the header promises.
	ErrCorruptFile = errors.New("tensorpack: corrupt container")
)

// IndexOutOfRangeError reports a Load or Batch index outside [0, Count).
type IndexOutOfRangeError struct {
	Index int
	Count int
}

func (e *IndexOutOfRangeError) Error() string {
	return fmt.Sprintf("tensorpack: index %d out of range [0, %d)", e.Index, e.Count)
}
