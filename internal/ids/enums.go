package ids

import "fmt"

// SourceType identifies the origin system a document was ingested from.
type SourceType string

const (
	SourceNotion    SourceType = "notion"
	SourceSlack     SourceType = "slack"
	SourceGmail     SourceType = "gmail"
	SourcePdfUpload SourceType = "pdf_upload"
)

func ParseSourceType(s string) (SourceType, error) {
	switch SourceType(s) {
	case SourceNotion, SourceSlack, SourceGmail, SourcePdfUpload:
		return SourceType(s), nil
	default:
		return "", fmt.Errorf("unknown source type: %s", s)
	}
}

func (s SourceType) String() string { return string(s) }

// JobType identifies the kind of work a Job performs.
type JobType string

const (
	JobFullSync        JobType = "full_sync"
	JobIncrementalSync JobType = "incremental_sync"
	JobFileUpload      JobType = "file_upload"
	JobReindex         JobType = "reindex"
)

func ParseJobType(s string) (JobType, error) {
	switch JobType(s) {
	case JobFullSync, JobIncrementalSync, JobFileUpload, JobReindex:
		return JobType(s), nil
	default:
		return "", fmt.Errorf("unknown job type: %s", s)
	}
}

func (j JobType) String() string { return string(j) }

// JobStatus is the lifecycle state of a Job. Transitions are monotonic:
// queued -> running -> {completed | failed | cancelled}.
type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobCompleted JobStatus = "completed"
	JobFailed    JobStatus = "failed"
	JobCancelled JobStatus = "cancelled"
)

func ParseJobStatus(s string) (JobStatus, error) {
	switch JobStatus(s) {
	case JobQueued, JobRunning, JobCompleted, JobFailed, JobCancelled:
		return JobStatus(s), nil
	default:
		return "", fmt.Errorf("unknown job status: %s", s)
	}
}

func (s JobStatus) String() string { return string(s) }

// IsTerminal reports whether the status is one of completed/failed/cancelled.
func (s JobStatus) IsTerminal() bool {
	return s == JobCompleted || s == JobFailed || s == JobCancelled
}

// ConnectorStatus tracks whether a connector's credentials are usable.
type ConnectorStatus string

const (
	ConnectorPending   ConnectorStatus = "pending"
	ConnectorConnected ConnectorStatus = "connected"
	ConnectorError     ConnectorStatus = "error"
)

func ParseConnectorStatus(s string) (ConnectorStatus, error) {
	switch ConnectorStatus(s) {
	case ConnectorPending, ConnectorConnected, ConnectorError:
		return ConnectorStatus(s), nil
	default:
		return "", fmt.Errorf("unknown connector status: %s", s)
	}
}

func (s ConnectorStatus) String() string { return string(s) }
