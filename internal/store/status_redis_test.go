package store

import (
    "testing"
    "time"
)

func TestDecodeStatus(t *testing.T) {
    start := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
    st := decodeStatus(map[string]string{
        "status":   StateSuccess,
        "progress": "100",
        "message":  "done",
        "start":    start.Format(time.RFC3339Nano),
        "metadata": `{"segments":2,"result_zip":"/tmp/x.zip"}`,
    })
    if st.Status != StateSuccess || st.Progress != 100 || st.Message != "done" {
        t.Fatalf("unexpected status %+v", st)
    }
    if st.Start == nil || !st.Start.Equal(start) {
        t.Fatalf("start = %v, want %v", st.Start, start)
    }
    if st.End != nil {
        t.Fatalf("end should be unset")
    }
    if st.Metadata["result_zip"] != "/tmp/x.zip" || st.Metadata["segments"] != float64(2) {
        t.Fatalf("unexpected metadata %v", st.Metadata)
    }
}

func TestDecodeStatusToleratesGarbage(t *testing.T) {
    st := decodeStatus(map[string]string{"status": StateQueued, "progress": "x", "start": "nope", "metadata": "{"})
    if st.Progress != 0 || st.Start != nil || st.Metadata != nil {
        t.Fatalf("unexpected status %+v", st)
    }
}

func TestTerminal(t *testing.T) {
    cases := map[string]bool{
        StateQueued: false, StateProcessing: false,
        StateSuccess: true, StateFailed: true, StateCancelled: true,
    }
    for state, want := range cases {
        if got := (Status{Status: state}).Terminal(); got != want {
            t.Errorf("%s: Terminal() = %v, want %v", state, got, want)
        }
    }
}
