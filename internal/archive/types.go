package archive

import (
	"encoding/json"
	"time"
)

// RecordVersion is written into every archived record.
const RecordVersion = "1.0"

// Record is the JSON document stored per submission.
type Record struct {
	Version     string          `json:"version"`
	Kind        string          `json:"kind"` // booking|contact
	ID          string          `json:"id"`
	EventID     string          `json:"event_id,omitempty"`
	ContactHash string          `json:"contact_hash"`
	SubmittedAt time.Time       `json:"submitted_at"`
	ArchivedAt  time.Time       `json:"archived_at"`
	Submission  json.RawMessage `json:"submission"`
}

// ManifestEntry is one JSONL line in the monthly manifest.
type ManifestEntry struct {
	ID          string `json:"id"`
	Kind        string `json:"kind"`
	S3Key       string `json:"s3_key"`
	ContactHash string `json:"contact_hash"`
	SubmittedAt string `json:"submitted_at"`
	ArchivedAt  string `json:"archived_at"`
}
