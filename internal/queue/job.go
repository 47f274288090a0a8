package queue

import (
    "encoding/json"
    "fmt"
)

// Job is the payload carried on the stream.
type Job struct {
    JobID  string `json:"job_id"`
    Ref    string `json:"ref"`
    User   string `json:"user"`
    Source string `json:"source"`
}

// Encode serializes a job for Enqueue.
func (j Job) Encode() ([]byte, error) {
    if j.JobID == "" || j.Ref == "" { return nil, fmt.Errorf("job requires job_id and ref") }
    return json.Marshal(j)
}

// DecodeJob parses a payload read by Dequeue.
func DecodeJob(data []byte) (Job, error) {
    var j Job
    if err := json.Unmarshal(data, &j); err != nil { return Job{}, fmt.Errorf("decode job: %w", err) }
    if j.JobID == "" || j.Ref == "" { return Job{}, fmt.Errorf("job missing job_id or ref") }
    return j, nil
}
