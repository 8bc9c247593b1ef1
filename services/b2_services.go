package services

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/kurin/blazer/b2"

	"checklistapi/models"
)

// SnapshotUploader stores a serialized checklist document under name.
type SnapshotUploader interface {
	UploadSnapshot(ctx context.Context, name string, data []byte) (*UploadResult, error)
}

type B2Service struct {
	client     *b2.Client
	bucketName string
	bucket     *b2.Bucket
}

type UploadResult struct {
	FileID      string
	FileName    string
	DownloadURL string // Signed URL, valid for a day
	Size        int64
	SHA1        string
}

func NewB2Service(ctx context.Context, keyID, applicationKey, bucketName string) (*B2Service, error) {
	client, err := b2.NewClient(ctx, keyID, applicationKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create B2 client: %w", err)
	}

	bucket, err := client.Bucket(ctx, bucketName)
	if err != nil {
		return nil, fmt.Errorf("failed to get bucket %s: %w", bucketName, err)
	}

	return &B2Service{
		client:     client,
		bucketName: bucketName,
		bucket:     bucket,
	}, nil
}

// UploadSnapshot streams data to the bucket object name.
func (s *B2Service) UploadSnapshot(ctx context.Context, name string, data []byte) (*UploadResult, error) {
	obj := s.bucket.Object(name)
	writer := obj.NewWriter(ctx, b2.WithAttrsOption(&b2.Attrs{ContentType: "application/json"}))

	hasher := sha1.New()
	multiWriter := io.MultiWriter(writer, hasher)

	size, err := io.Copy(multiWriter, bytes.NewReader(data))
	if err != nil {
		writer.Close()
		return nil, fmt.Errorf("failed to upload snapshot to B2: %w", err)
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close B2 writer: %w", err)
	}

	downloadURL, err := s.GetDownloadURL(ctx, name, 24*time.Hour)
	if err != nil {
		return nil, err
	}

	return &UploadResult{
		FileID:      name,
		FileName:    name,
		DownloadURL: downloadURL,
		Size:        size,
		SHA1:        hex.EncodeToString(hasher.Sum(nil)),
	}, nil
}

// GetDownloadURL generates a signed download URL for private buckets
func (s *B2Service) GetDownloadURL(ctx context.Context, objectName string, duration time.Duration) (string, error) {
	obj := s.bucket.Object(objectName)

	urlObj, err := obj.AuthURL(ctx, duration, "")
	if err != nil {
		return "", fmt.Errorf("failed to generate signed URL: %w", err)
	}

	return urlObj.String(), nil
}

// SnapshotName returns the object name for a snapshot taken at t.
func SnapshotName(t time.Time) string {
	return "snapshots/checklists-" + t.UTC().Format("20060102T150405Z") + ".json"
}

// UploadDocumentSnapshot loads the current document from store and uploads
// it through uploader.
func UploadDocumentSnapshot(ctx context.Context, store ChecklistStore, uploader SnapshotUploader, now time.Time) (*UploadResult, error) {
	result, err := uploadDocumentSnapshot(ctx, store, uploader, now)
	RecordSnapshotUpload(err)
	return result, err
}

func uploadDocumentSnapshot(ctx context.Context, store ChecklistStore, uploader SnapshotUploader, now time.Time) (*UploadResult, error) {
	doc, err := store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load document for snapshot: %w", err)
	}
	if doc.Checklists == nil {
		doc.Checklists = map[string]models.Checklist{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	return uploader.UploadSnapshot(ctx, SnapshotName(now), data)
}
