package upload

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a stored file doesn't exist.
	ErrNotFound = errors.New("upload: file not found")

	// ErrTooLarge is returned when a file exceeds the size limit.
	ErrTooLarge = errors.New("upload: file too large")
)

// Sink persists completed uploads.
type Sink interface {
	// Save stores the contents of r under a new id.
	Save(ctx context.Context, name string, r io.Reader) (id string, err error)
}

// File is a stored upload.
type File struct {
	ID        string
	Name      string
	Size      int64
	Path      string
	CreatedAt time.Time
}

// DiskSink stores uploads in a local directory.
type DiskSink struct {
	dir     string
	maxSize int64

	mu    sync.RWMutex
	files map[string]*File
}

// NewDiskSink creates the directory if needed. maxSize of 0 means no limit.
func NewDiskSink(dir string, maxSize int64) (*DiskSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskSink{dir: dir, maxSize: maxSize, files: make(map[string]*File)}, nil
}

// Save writes r to a new file.
func (s *DiskSink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	id := uuid.NewString()
	path := filepath.Join(s.dir, id)

	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if s.maxSize > 0 {
		r = io.LimitReader(r, s.maxSize+1)
	}
	written, err := io.Copy(f, r)
	if err != nil {
		os.Remove(path)
		return "", err
	}
	if s.maxSize > 0 && written > s.maxSize {
		os.Remove(path)
		return "", ErrTooLarge
	}

	file := &File{ID: id, Name: filepath.Base(name), Size: written, Path: path, CreatedAt: time.Now()}
	s.mu.Lock()
	s.files[id] = file
	s.mu.Unlock()

	if err := s.saveMeta(file); err != nil {
		return "", err
	}
	return id, nil
}

// Stat returns the metadata of a stored file.
func (s *DiskSink) Stat(id string) (*File, error) {
	s.mu.RLock()
	file, ok := s.files[id]
	s.mu.RUnlock()
	if ok {
		return file, nil
	}
	file, err := s.loadMeta(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return file, nil
}

// Open opens a stored file for reading.
func (s *DiskSink) Open(id string) (io.ReadCloser, error) {
	file, err := s.Stat(id)
	if err != nil {
		return nil, err
	}
	return os.Open(file.Path)
}

// Cleanup removes files older than maxAge.
func (s *DiskSink) Cleanup(maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	s.mu.Lock()
	for id, file := range s.files {
		if file.CreatedAt.Before(cutoff) {
			delete(s.files, id)
		}
	}
	s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(s.dir, entry.Name()))
		}
	}
	return nil
}

func (s *DiskSink) metaPath(id string) string {
	return filepath.Join(s.dir, id+".meta")
}

func (s *DiskSink) saveMeta(file *File) error {
	data, err := json.Marshal(file)
	if err != nil {
		return err
	}
	return os.WriteFile(s.metaPath(file.ID), data, 0o644)
}

func (s *DiskSink) loadMeta(id string) (*File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.metaPath(id))
	if err != nil {
		return nil, err
	}
	var file File
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, err
	}
	return &file, nil
}

// S3API is the subset of *s3.Client used by S3Sink.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, opts ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Sink stores uploads in an S3 bucket.
type S3Sink struct {
	client  S3API
	bucket  string
	prefix  string
	maxSize int64
}

// NewS3Sink creates a sink writing to bucket under prefix.
// maxSize of 0 means no limit.
func NewS3Sink(client S3API, bucket, prefix string, maxSize int64) *S3Sink {
	return &S3Sink{client: client, bucket: bucket, prefix: prefix, maxSize: maxSize}
}

// NewS3Client builds an S3 client from static settings. Empty keys give
// anonymous access. Endpoint may be empty to use AWS; set it for
// S3-compatible stores such as MinIO.
func NewS3Client(region, endpoint, accessKey, secretKey string) *s3.Client {
	cfg := aws.Config{Region: region, Credentials: aws.AnonymousCredentials{}}
	if accessKey != "" {
		cfg.Credentials = aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			return aws.Credentials{AccessKeyID: accessKey, SecretAccessKey: secretKey, Source: "idom"}, nil
		})
	}
	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
}

// Save buffers r and uploads it as one object.
func (s *S3Sink) Save(ctx context.Context, name string, r io.Reader) (string, error) {
	var buf bytes.Buffer
	if s.maxSize > 0 {
		n, err := io.Copy(&buf, io.LimitReader(r, s.maxSize+1))
		if err != nil {
			return "", err
		}
		if n > s.maxSize {
			return "", ErrTooLarge
		}
	} else if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}

	id := uuid.NewString()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.prefix + id),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		Metadata: map[string]string{
			"original-filename": filepath.Base(name),
			"upload-time":       time.Now().UTC().Format(time.RFC3339),
		},
	})
	if err != nil {
		return "", fmt.Errorf("upload: s3 put: %w", err)
	}
	return id, nil
}

// Cleanup removes objects under the prefix older than maxAge.
func (s *S3Sink) Cleanup(ctx context.Context, maxAge time.Duration) error {
	cutoff := time.Now().Add(-maxAge)

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})

	var toDelete []string
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return err
		}
		for _, obj := range page.Contents {
			if obj.LastModified != nil && obj.LastModified.Before(cutoff) && obj.Key != nil {
				toDelete = append(toDelete, *obj.Key)
			}
		}
	}

	for _, key := range toDelete {
		if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(key),
		}); err != nil {
			return err
		}
	}
	return nil
}
