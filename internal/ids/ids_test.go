package ids

import "testing"

func TestSourceTypeRoundTrip(t *testing.T) {
	for _, s := range []SourceType{SourceNotion, SourceSlack, SourceGmail, SourcePdfUpload} {
		got, err := ParseSourceType(s.String())
		if err != nil {
			t.Fatalf("ParseSourceType(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("round trip mismatch: %q -> %q", s, got)
		}
	}
}

func TestJobStatusRoundTrip(t *testing.T) {
	for _, s := range []JobStatus{JobQueued, JobRunning, JobCompleted, JobFailed, JobCancelled} {
		got, err := ParseJobStatus(s.String())
		if err != nil {
			t.Fatalf("ParseJobStatus(%q): %v", s, err)
		}
		if got != s {
			t.Errorf("round trip mismatch: %q -> %q", s, got)
		}
	}
}

func TestJobTypeRoundTrip(t *testing.T) {
	for _, jt := range []JobType{JobFullSync, JobIncrementalSync, JobFileUpload, JobReindex} {
		got, err := ParseJobType(jt.String())
		if err != nil {
			t.Fatalf("ParseJobType(%q): %v", jt, err)
		}
		if got != jt {
			t.Errorf("round trip mismatch: %q -> %q", jt, got)
		}
	}
}

func TestParseSourceTypeRejectsUnknown(t *testing.T) {
	if _, err := ParseSourceType("carrier_pigeon"); err == nil {
		t.Fatal("expected error for unknown source type")
	}
}

func TestJobStatusIsTerminal(t *testing.T) {
	cases := map[JobStatus]bool{
		JobQueued:    false,
		JobRunning:   false,
		JobCompleted: true,
		JobFailed:    true,
		JobCancelled: true,
	}
	for status, want := range cases {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%q.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestIdDisplayIsValidUUID(t *testing.T) {
	d := NewDocumentId()
	parsed, err := ParseDocumentId(d.String())
	if err != nil {
		t.Fatalf("ParseDocumentId: %v", err)
	}
	if parsed != d {
		t.Errorf("id round trip mismatch: %v != %v", parsed, d)
	}
}
