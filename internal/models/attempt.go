package models

import "time"

// Outcome describes how a submission attempt ended.
type Outcome string

const (
	// OutcomePassed: the selection was empty and the submit reached the host untouched.
	OutcomePassed Outcome = "passed"
	// OutcomeRejected: the validator refused the selection.
	OutcomeRejected Outcome = "rejected"
	// OutcomeUploadFailed: a file failed and the batch was abandoned.
	OutcomeUploadFailed Outcome = "upload_failed"
	// OutcomeMissingField: the hidden URL field was not found on the host form.
	OutcomeMissingField Outcome = "missing_field"
	// OutcomeSubmitted: URLs were written and the native submission fired.
	OutcomeSubmitted Outcome = "submitted"
)

// Attempt is the ledger record of one intercepted submission.
type Attempt struct {
	ID        string
	FormID    string
	Outcome   Outcome
	FileCount int
	URLs      []string
	Error     string
	CreatedAt time.Time
}

// TaskRecord is the persisted form of an UploadTask.
type TaskRecord struct {
	AttemptID      string
	Position       int
	FileName       string
	ContentType    string
	Size           int64
	DestinationKey string
	Status         TaskStatus
	URL            string
	Error          string
}

// NewTaskRecords flattens a batch's tasks for persistence.
func NewTaskRecords(attemptID string, tasks []UploadTask) []TaskRecord {
	out := make([]TaskRecord, 0, len(tasks))
	for i, t := range tasks {
		r := TaskRecord{
			AttemptID:      attemptID,
			Position:       i,
			FileName:       t.Source.Name,
			ContentType:    t.Source.ContentType,
			Size:           t.Source.Size,
			DestinationKey: t.DestinationKey,
			Status:         t.Status,
			URL:            t.URL,
		}
		if t.Err != nil {
			r.Error = t.Err.Error()
		}
		out = append(out, r)
	}
	return out
}
