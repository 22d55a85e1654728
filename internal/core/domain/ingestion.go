package domain

import "time"

// MaxReportedErrors is the number of batch error messages included in
// an ingestion report; the remainder is elided with a count.
const MaxReportedErrors = 10

// BatchError records one document's processing failure within a batch.
type BatchError struct {
	// Identifier is the document's source path or source-scoped ID.
	Identifier string

	// Message is the failure description, with enough context to retry.
	Message string

	// Time is when the failure occurred.
	Time time.Time
}

// IngestReport summarises one ingestion batch. A single document's
// failure never aborts the batch; it is recorded here instead.
type IngestReport struct {
	// SourceType is the adapter this report covers.
	SourceType string

	// Total is the number of documents listed by the source.
	Total int

	// Processed is the number chunked, embedded and persisted.
	Processed int

	// Skipped is the number short-circuited by an unchanged content hash.
	Skipped int

	// Failed is the number that errored.
	Failed int

	// Errors holds the first MaxReportedErrors failures.
	Errors []BatchError

	// ElidedErrors is the count of failures beyond Errors.
	ElidedErrors int
}

// Record adds a failure to the report, eliding beyond the cap.
func (r *IngestReport) Record(identifier string, err error) {
	r.Failed++
	if len(r.Errors) >= MaxReportedErrors {
		r.ElidedErrors++
		return
	}
	r.Errors = append(r.Errors, BatchError{
		Identifier: identifier,
		Message:    err.Error(),
		Time:       time.Now(),
	})
}
