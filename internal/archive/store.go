package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/cappsac/capps-site/pkg/logging"
)

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store writes submission snapshots to S3.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates an archive Store. If bucket is empty, all operations are no-ops.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled returns true if archival is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// Archive writes record under intake/v1/<kind>/by-date/ and appends it to
// the month's manifest. A manifest failure is logged, not returned.
func (s *Store) Archive(ctx context.Context, record Record) (string, error) {
	if !s.Enabled() {
		return "", nil
	}
	if record.Version == "" {
		record.Version = RecordVersion
	}
	if record.ArchivedAt.IsZero() {
		record.ArchivedAt = s.now().UTC()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return "", fmt.Errorf("archive: marshal record: %w", err)
	}

	day := record.SubmittedAt.UTC()
	if day.IsZero() {
		day = record.ArchivedAt
	}
	key := fmt.Sprintf("intake/v1/%s/by-date/%d/%02d/%02d/%s.json",
		record.Kind, day.Year(), day.Month(), day.Day(), record.ID)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}
	s.logger.Info("archived submission", "kind", record.Kind, "id", record.ID, "s3_key", key)

	entry := ManifestEntry{
		ID:          record.ID,
		Kind:        record.Kind,
		S3Key:       key,
		ContactHash: record.ContactHash,
		SubmittedAt: record.SubmittedAt.UTC().Format(time.RFC3339),
		ArchivedAt:  record.ArchivedAt.Format(time.RFC3339),
	}
	if err := s.appendManifest(ctx, record.ArchivedAt, entry); err != nil {
		s.logger.Warn("failed to append manifest", "error", err, "id", record.ID)
	}
	return key, nil
}

// appendManifest does a read-modify-write since S3 has no append.
func (s *Store) appendManifest(ctx context.Context, at time.Time, entry ManifestEntry) error {
	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}
	key := fmt.Sprintf("intake/v1/manifests/%d-%02d.jsonl", at.Year(), at.Month())

	var existing []byte
	out, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(out.Body)
		out.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("manifest not found, creating new", "key", key)
	default:
		return fmt.Errorf("archive: get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var nf *s3types.NotFound
	return errors.As(err, &nf)
}
