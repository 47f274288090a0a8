package dispatcher

import "fmt"

// JobError records which step of a job failed.
type JobError struct {
	Stage string // "decode"|"fetch"|"split"|"deliver"
	Err   error
}

func (e *JobError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *JobError) Unwrap() error { return e.Err }

func stageErr(stage string, err error) error {
	if err == nil {
		return nil
	}
	return &JobError{Stage: stage, Err: err}
}
