// Package archive keeps the raw CSV uploads in Google Cloud Storage.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const uploadTimeout = 2 * time.Minute

var ErrInvalidURI = errors.New("invalid GCS URI")

// Archiver stores an uploaded file and returns its URI.
type Archiver interface {
	Archive(ctx context.Context, userID, fileID, filename string, content []byte) (string, error)
}

// Noop discards uploads. It is used when no bucket is configured.
type Noop struct{}

func (Noop) Archive(context.Context, string, string, string, []byte) (string, error) {
	return "", nil
}

// GCS writes uploads to a bucket under csv/<user>/<file>/<name>.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS uses Application Default Credentials unless opts say otherwise.
func NewGCS(ctx context.Context, bucket string, opts ...option.ClientOption) (*GCS, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, errors.New("missing CSV_ARCHIVE_BUCKET")
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// New returns a GCS archiver when bucket is set, otherwise Noop.
func New(ctx context.Context, bucket string) (Archiver, error) {
	if strings.TrimSpace(bucket) == "" {
		return Noop{}, nil
	}
	return NewGCS(ctx, bucket)
}

func (g *GCS) Archive(ctx context.Context, userID, fileID, filename string, content []byte) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	name := ObjectName(userID, fileID, filename)
	w := g.client.Bucket(g.bucket).Object(name).NewWriter(ctx)
	w.ContentType = "text/csv"
	w.Metadata = map[string]string{"user_id": userID, "file_id": fileID}

	if _, err := w.Write(content); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize upload: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, name), nil
}

// Fetch downloads the object behind a gs:// URI.
func (g *GCS) Fetch(ctx context.Context, uri string) ([]byte, error) {
	return Fetch(ctx, g.client, uri)
}

// Fetch downloads the object behind a gs:// URI with client.
func Fetch(ctx context.Context, client *storage.Client, uri string) ([]byte, error) {
	bucket, object, err := ParseURI(uri)
	if err != nil {
		return nil, err
	}
	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("read object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read bytes: %w", err)
	}
	return data, nil
}

func (g *GCS) Close() error {
	return g.client.Close()
}

// ObjectName builds the object path for an upload. Only the base name of
// filename is kept.
func ObjectName(userID, fileID, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "upload.csv"
	}
	return path.Join("csv", userID, fileID, base)
}

// ParseURI splits gs://bucket/path/to/object.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("%w: %s", ErrInvalidURI, uri)
	}
	bucket, object, ok := strings.Cut(strings.TrimPrefix(uri, "gs://"), "/")
	if !ok || bucket == "" || object == "" {
		return "", "", fmt.Errorf("%w (no object path): %s", ErrInvalidURI, uri)
	}
	return bucket, object, nil
}
