// Package archive uploads handled coverage documents to object storage.
//
// It backs the "archive" retain policy: the document is uploaded under a
// job-scoped key and then removed locally by the caller.
package archive

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"inkflow/internal/config"
	"inkflow/internal/fileutil"
	"inkflow/internal/services"
)

// Object describes one upload.
type Object struct {
	JobID     int64
	Document  string
	Path      string
	RequestID string
}

type putter interface {
	FPutObject(ctx context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	BucketExists(ctx context.Context, bucket string) (bool, error)
}

// Archiver stores documents in a bucket.
type Archiver struct {
	client putter
	bucket string
	prefix string
	now    func() time.Time
}

// New connects to the configured object store.
func New(cfg *config.Config) (*Archiver, error) {
	a := cfg.Archive
	client, err := minio.New(a.Endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(a.AccessKey, a.SecretKey, ""),
		Secure:    a.UseSSL,
		Region:    a.Region,
		Transport: newTransport(),
	})
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "archive", "connect", a.Endpoint, err)
	}
	return newArchiver(client, a.Bucket, a.Prefix), nil
}

func newArchiver(client putter, bucket, prefix string) *Archiver {
	return &Archiver{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/"), now: time.Now}
}

// Check verifies the bucket exists.
func (a *Archiver) Check(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return services.Wrap(services.ErrIO, "archive", "check", a.bucket, err)
	}
	if !exists {
		return services.Wrap(services.ErrConfiguration, "archive", "check", fmt.Sprintf("bucket %s missing", a.bucket), nil)
	}
	return nil
}

// Key returns the object key a document is stored under.
func (a *Archiver) Key(obj Object) string {
	day := a.now().UTC().Format("2006/01/02")
	parts := []string{day, fmt.Sprintf("%d", obj.JobID), filepath.Base(obj.Document)}
	if a.prefix != "" {
		parts = append([]string{a.prefix}, parts...)
	}
	return path.Join(parts...)
}

// Store uploads the document and returns its key.
func (a *Archiver) Store(ctx context.Context, obj Object) (string, error) {
	sum, err := fileutil.SHA256File(obj.Path)
	if err != nil {
		return "", services.Wrap(services.ErrIO, "archive", "checksum", obj.Document, err)
	}
	key := a.Key(obj)
	opts := minio.PutObjectOptions{
		ContentType: "application/xml",
		UserMetadata: map[string]string{
			"sha256":     sum,
			"request-id": obj.RequestID,
		},
	}
	if _, err := a.client.FPutObject(ctx, a.bucket, key, obj.Path, opts); err != nil {
		return "", services.Wrap(services.ErrIO, "archive", "upload", key, err)
	}
	return key, nil
}

func newTransport() *http.Transport {
	dialer := &net.Dialer{
		Timeout:   5 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
}
