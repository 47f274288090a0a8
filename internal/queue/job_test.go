package queue

import "testing"

func TestJobEncodeDecode(t *testing.T) {
    in := Job{JobID: "abc", Ref: "s3://bucket/in.pdf", User: "ana", Source: "api"}
    data, err := in.Encode()
    if err != nil {
        t.Fatalf("Encode() error = %v", err)
    }
    out, err := DecodeJob(data)
    if err != nil {
        t.Fatalf("DecodeJob() error = %v", err)
    }
    if out != in {
        t.Fatalf("got %+v, want %+v", out, in)
    }
}

func TestJobValidation(t *testing.T) {
    if _, err := (Job{JobID: "x"}).Encode(); err == nil {
        t.Fatalf("expected error for missing ref")
    }
    for _, raw := range []string{"not json", `{"job_id":"x"}`, `{"ref":"a.pdf"}`} {
        if _, err := DecodeJob([]byte(raw)); err == nil {
            t.Errorf("DecodeJob(%q) expected error", raw)
        }
    }
}

func TestBusyGroupDetection(t *testing.T) {
    if isBusyGroupErr(nil) {
        t.Fatalf("nil is not BUSYGROUP")
    }
}
