package upload_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/vango-dev/idom/pkg/upload"
)

func TestDiskSinkSaveAndOpen(t *testing.T) {
	sink, err := upload.NewDiskSink(t.TempDir(), 1024)
	if err != nil {
		t.Fatalf("failed to create sink: %v", err)
	}

	id, err := sink.Save(context.Background(), "../../etc/passwd", strings.NewReader("hello world"))
	if err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	file, err := sink.Stat(id)
	if err != nil {
		t.Fatalf("failed to stat: %v", err)
	}
	if file.Name != "passwd" {
		t.Errorf("expected base name passwd, got %s", file.Name)
	}

	r, err := sink.Open(id)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer r.Close()
	data, _ := io.ReadAll(r)
	if string(data) != "hello world" {
		t.Errorf("content mismatch: %q", data)
	}

	if _, err := sink.Stat("missing"); !errors.Is(err, upload.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDiskSinkTooLarge(t *testing.T) {
	sink, err := upload.NewDiskSink(t.TempDir(), 4)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := sink.Save(context.Background(), "big", strings.NewReader("12345")); !errors.Is(err, upload.ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
}

func TestDiskSinkCleanup(t *testing.T) {
	sink, err := upload.NewDiskSink(t.TempDir(), 0)
	if err != nil {
		t.Fatal(err)
	}
	id, err := sink.Save(context.Background(), "a", strings.NewReader("x"))
	if err != nil {
		t.Fatal(err)
	}
	if err := sink.Cleanup(-time.Second); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}
	if _, err := sink.Open(id); err == nil {
		t.Error("file survived cleanup")
	}
}

type fakeS3 struct {
	objects map[string][]byte
	meta    map[string]map[string]string
	deleted []string
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	var buf bytes.Buffer
	io.Copy(&buf, in.Body)
	f.objects[*in.Key] = buf.Bytes()
	f.meta[*in.Key] = in.Metadata
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) DeleteObject(_ context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.deleted = append(f.deleted, *in.Key)
	delete(f.objects, *in.Key)
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeS3) ListObjectsV2(_ context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	old := time.Now().Add(-time.Hour)
	out := &s3.ListObjectsV2Output{}
	for key := range f.objects {
		if strings.HasPrefix(key, *in.Prefix) {
			out.Contents = append(out.Contents, types.Object{Key: aws.String(key), LastModified: &old})
		}
	}
	return out, nil
}

func TestS3Sink(t *testing.T) {
	client := &fakeS3{objects: map[string][]byte{}, meta: map[string]map[string]string{}}
	sink := upload.NewS3Sink(client, "bucket", "uploads/", 100)

	id, err := sink.Save(context.Background(), "dir/report.pdf", strings.NewReader("pdf"))
	if err != nil {
		t.Fatalf("Save error: %v", err)
	}
	key := "uploads/" + id
	if string(client.objects[key]) != "pdf" {
		t.Errorf("object = %q", client.objects[key])
	}
	if client.meta[key]["original-filename"] != "report.pdf" {
		t.Errorf("metadata = %v", client.meta[key])
	}

	if _, err := sink.Save(context.Background(), "big", strings.NewReader(strings.Repeat("x", 101))); !errors.Is(err, upload.ErrTooLarge) {
		t.Errorf("oversized Save = %v", err)
	}

	if err := sink.Cleanup(context.Background(), time.Minute); err != nil {
		t.Fatalf("Cleanup error: %v", err)
	}
	if len(client.deleted) != 1 || client.deleted[0] != key {
		t.Errorf("deleted = %v", client.deleted)
	}
}

func TestNewS3Client(t *testing.T) {
	c := upload.NewS3Client("us-east-1", "http://localhost:9000", "key", "secret")
	if c == nil {
		t.Fatal("nil client")
	}
	if got := c.Options().Region; got != "us-east-1" {
		t.Errorf("region = %q", got)
	}
}
