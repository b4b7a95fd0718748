package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wolfman30/hospital-site/pkg/logging"
)

// ErrTooLarge is returned when an upload exceeds the configured limit.
var ErrTooLarge = errors.New("uploads: file too large")

// Store persists uploaded files and returns the key they were stored under.
type Store interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

// S3Client interface for S3 operations (allows mocking in tests)
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes uploads to a bucket.
type S3Store struct {
	client S3Client
	bucket string
	logger *logging.Logger
}

func NewS3Store(client S3Client, bucket string, logger *logging.Logger) *S3Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Store{client: client, bucket: bucket, logger: logger}
}

func (s *S3Store) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	// PutObject needs a seekable body to compute the payload hash.
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("uploads: read body: %w", err)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		s.logger.Error("upload to s3 failed", "bucket", s.bucket, "key", key, "error", err)
		return "", fmt.Errorf("uploads: put %s: %w", key, err)
	}
	s.logger.Info("file uploaded", "bucket", s.bucket, "key", key, "bytes", len(data))
	return key, nil
}

// MemoryStore keeps uploads in memory. Used in development and tests.
type MemoryStore struct {
	mu    sync.Mutex
	files map[string]File
}

// File is a stored upload.
type File struct {
	ContentType string
	Data        []byte
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{files: map[string]File{}}
}

func (m *MemoryStore) Put(_ context.Context, key, contentType string, body io.Reader) (string, error) {
	data, err := io.ReadAll(body)
	if err != nil {
		return "", fmt.Errorf("uploads: read body: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = File{ContentType: contentType, Data: data}
	return key, nil
}

// Get returns a stored file.
func (m *MemoryStore) Get(key string) (File, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.files[key]
	return f, ok
}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// ApplicationKey builds the object key for a file attached to an
// application: applications/<application id>/<sanitized file name>.
func ApplicationKey(applicationID, filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "_"), "_")
	if name == "" || name == "." {
		name = "file"
	}
	return "applications/" + applicationID + "/" + name
}

// LimitReader wraps r so reading more than max bytes fails with ErrTooLarge.
func LimitReader(r io.Reader, max int64) io.Reader {
	return &limitedReader{r: r, remaining: max}
}

type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}
	return n, err
}
