package db

import "time"

// Journal states. The running states mirror core.JobState names; a job
// starts as pending until the printer accepts it.
const (
	StatePending   = "pending"
	StateSubmitted = "submitted"
	StatePolling   = "polling"
	StateCompleted = "completed"
	StateTimedOut  = "timed_out"
	StateCanceled  = "canceled"
	StateFailed    = "failed"
)

// FinishedStates are the states a job never leaves.
var FinishedStates = []string{StateCompleted, StateTimedOut, StateCanceled, StateFailed}

type PrintJob struct {
	ID             string     `json:"id"`
	PrinterName    string     `json:"printer_name"`
	PrinterURI     string     `json:"printer_uri"`
	IPPJobID       int        `json:"ipp_job_id"`
	State          string     `json:"state"`
	Attempts       int        `json:"attempts"`
	TapeWidth      int        `json:"tape_width"`
	HighResolution bool       `json:"high_resolution"`
	StreamBytes    int        `json:"stream_bytes"`
	ErrorMessage   string     `json:"error_message,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
}

// JobUpdate carries the fields a state change writes.
type JobUpdate struct {
	State        string
	IPPJobID     int
	Attempts     int
	StreamBytes  int
	ErrorMessage string
}

type JobFilter struct {
	PrinterName string
	State       string
	FromDate    *time.Time
	ToDate      *time.Time
	Limit       int
	Offset      int
}

type Archive struct {
	ID          int64     `json:"id"`
	ArchiveFile string    `json:"archive_file"`
	JobCount    int       `json:"job_count"`
	Encrypted   bool      `json:"encrypted"`
	ArchivedAt  time.Time `json:"archived_at"`
}

// IsFinished reports whether state is terminal.
func IsFinished(state string) bool {
	for _, s := range FinishedStates {
		if s == state {
			return true
		}
	}
	return false
}
