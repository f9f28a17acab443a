package core

import (
	"fmt"
)

// Image is a decoded raster as delivered by a Decoder. Data holds
// Channels bytes per pixel in row-major order.
type Image struct {
	Width    int
	Height   int
	Channels int
	Data     []byte
}

// PixelMatrix is a monochrome bitmap. Data has Height rows of Width
// values; 1 is a mark, 0 is blank.
type PixelMatrix struct {
	Width  int
	Height int
	Data   [][]uint8
}

func (m *PixelMatrix) Validate() error {
	if m == nil {
		return fmt.Errorf("%w: nil matrix", ErrInvalidPixelMatrix)
	}
	if m.Width < 0 || m.Height < 0 {
		return fmt.Errorf("%w: negative dimensions %dx%d", ErrInvalidPixelMatrix, m.Width, m.Height)
	}
	if len(m.Data) != m.Height {
		return fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidPixelMatrix, m.Height, len(m.Data))
	}
	for y, row := range m.Data {
		if len(row) != m.Width {
			return fmt.Errorf("%w: row %d has %d values, expected %d", ErrInvalidPixelMatrix, y, len(row), m.Width)
		}
		for x, v := range row {
			if v > 1 {
				return fmt.Errorf("%w: value %d at (%d,%d)", ErrInvalidPixelMatrix, v, x, y)
			}
		}
	}
	return nil
}

// CommandStream is the compiled byte sequence sent to the printer as
// the job document.
type CommandStream []byte

type JobState int

const (
	JobStateSubmitted JobState = iota + 1
	JobStatePolling
	JobStateCompleted
	JobStateTimedOut
	JobStateCanceled
	JobStateFailed
)

func (s JobState) String() string {
	switch s {
	case JobStateSubmitted:
		return "submitted"
	case JobStatePolling:
		return "polling"
	case JobStateCompleted:
		return "completed"
	case JobStateTimedOut:
		return "timed_out"
	case JobStateCanceled:
		return "canceled"
	case JobStateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether no further transitions follow s.
func (s JobState) Terminal() bool {
	return s == JobStateCompleted || s == JobStateCanceled || s == JobStateFailed
}

func (s JobState) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// PrintJob is the controller's record of one submitted job.
type PrintJob struct {
	ID      int
	State   JobState
	Attempt int
}

// JobResult is returned when a job reaches a terminal state.
type JobResult struct {
	JobID      int            `json:"job_id"`
	State      JobState       `json:"state"`
	Attempts   int            `json:"attempts"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// TransitionFunc observes every state change of a PrintJob.
type TransitionFunc func(job PrintJob)
