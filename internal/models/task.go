package models

// TaskStatus is the outcome of a single file's upload.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
)

// UploadTask tracks one file of a batch.
type UploadTask struct {
	Source         File
	DestinationKey string
	Status         TaskStatus
	// URL is set once Status is TaskSucceeded.
	URL string
	// Err is set once Status is TaskFailed.
	Err error
}
