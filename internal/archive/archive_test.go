package archive

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"

	"inkflow/internal/services"
)

type fakeBucket struct {
	exists  bool
	bucket  string
	key     string
	file    string
	opts    minio.PutObjectOptions
	putErr  error
	headErr error
}

func (f *fakeBucket) FPutObject(_ context.Context, bucket, object, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	f.bucket, f.key, f.file, f.opts = bucket, object, filePath, opts
	if f.putErr != nil {
		return minio.UploadInfo{}, f.putErr
	}
	return minio.UploadInfo{Bucket: bucket, Key: object}, nil
}

func (f *fakeBucket) BucketExists(context.Context, string) (bool, error) {
	return f.exists, f.headErr
}

func TestStoreUploadsWithChecksum(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "12345-2.xml")
	if err := os.WriteFile(doc, []byte("abc"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	bucket := &fakeBucket{exists: true}
	a := newArchiver(bucket, "prepress", "/ink-coverage/")
	a.now = func() time.Time { return time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC) }

	key, err := a.Store(context.Background(), Object{JobID: 12345, Document: "12345-2.xml", Path: doc, RequestID: "req-1"})
	if err != nil {
		t.Fatalf("Store failed: %v", err)
	}
	if key != "ink-coverage/2026/03/04/12345/12345-2.xml" {
		t.Fatalf("unexpected key: %s", key)
	}
	if bucket.bucket != "prepress" || bucket.file != doc {
		t.Fatalf("unexpected upload target: %+v", bucket)
	}
	const abcSum = "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if bucket.opts.UserMetadata["sha256"] != abcSum {
		t.Fatalf("unexpected checksum metadata: %v", bucket.opts.UserMetadata)
	}
}

func TestStoreWrapsFailures(t *testing.T) {
	a := newArchiver(&fakeBucket{}, "b", "")
	if _, err := a.Store(context.Background(), Object{Path: filepath.Join(t.TempDir(), "missing.xml")}); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO for missing file, got %v", err)
	}

	doc := filepath.Join(t.TempDir(), "1-1.xml")
	if err := os.WriteFile(doc, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	a = newArchiver(&fakeBucket{putErr: errors.New("access denied")}, "b", "")
	if _, err := a.Store(context.Background(), Object{JobID: 1, Document: "1-1.xml", Path: doc}); !errors.Is(err, services.ErrIO) {
		t.Fatalf("expected ErrIO for upload failure, got %v", err)
	}
}

func TestCheckReportsMissingBucket(t *testing.T) {
	a := newArchiver(&fakeBucket{exists: false}, "prepress", "")
	if err := a.Check(context.Background()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	a = newArchiver(&fakeBucket{exists: true}, "prepress", "")
	if err := a.Check(context.Background()); err != nil {
		t.Fatalf("Check failed: %v", err)
	}
}
