package constants

// JobStatus is the canonical status for rows in extract_job.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusExtracted JobStatus = "EXTRACTED" // text acquired and fields extracted
	JobStatusMapped    JobStatus = "MAPPED"    // metadata persisted and profile reconciled
	JobStatusFailed    JobStatus = "FAILED"
)

// DetectionMethod records how a document type was decided.
type DetectionMethod string

const (
	DetectionOCR          DetectionMethod = "ocr"
	DetectionHint         DetectionMethod = "hint"
	DetectionDefault      DetectionMethod = "default"
	DetectionHintOnError  DetectionMethod = "hint_on_error"
	DetectionErrorDefault DetectionMethod = "error_default"
)
