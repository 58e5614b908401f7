// Package upload stages applicant documents into the blob store, one file at
// a time: a batch is never all-or-nothing.
package upload

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/google/uuid"

	stderrors "partner-onboarding/internal/common/errors"
	"partner-onboarding/internal/common/logger"
	"partner-onboarding/internal/common/metrics"
	"partner-onboarding/internal/models"
	"partner-onboarding/internal/onboarding/schema"
)

// BlobStore is the narrow storage contract; satisfied by the S3 client.
type BlobStore interface {
	PutObject(ctx context.Context, bucket, key, contentType string, body io.Reader) (string, error)
}

// File is one document handed to the orchestrator.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Content     io.Reader
}

// FileError attributes a failure to one file of a batch.
type FileError struct {
	Name string
	Err  error
}

// BatchResult reports per-file outcomes. Handles holds the successes in
// input order; Failures the rest.
type BatchResult struct {
	Handles  []models.UploadedFile
	Failures []FileError
}

// Succeeded returns the number of files stored.
func (r BatchResult) Succeeded() int { return len(r.Handles) }

// Failed returns the number of files that could not be stored.
func (r BatchResult) Failed() int { return len(r.Failures) }

// Orchestrator uploads document batches namespaced by the applicant so two
// applicants' files can never collide.
type Orchestrator struct {
	blob    BlobStore
	bucket  string
	ownerID string
	log     logger.Logger
}

func NewOrchestrator(blob BlobStore, bucket, ownerID string, log logger.Logger) *Orchestrator {
	return &Orchestrator{
		blob:    blob,
		bucket:  bucket,
		ownerID: ownerID,
		log:     log.WithFields(map[string]interface{}{"component": "upload", "owner": ownerID}),
	}
}

// UploadBatch stores each file independently and concurrently. Files that
// succeed produce handles even when siblings fail; completion order within
// the batch is unspecified but every outcome is individually attributable.
func (o *Orchestrator) UploadBatch(ctx context.Context, fieldKey schema.FieldKey, files []File) BatchResult {
	type outcome struct {
		handle models.UploadedFile
		err    error
	}

	outcomes := make([]outcome, len(files))
	var wg sync.WaitGroup
	for i, f := range files {
		wg.Add(1)
		go func(i int, f File) {
			defer wg.Done()
			url, err := o.uploadOne(ctx, fieldKey, f)
			if err != nil {
				outcomes[i] = outcome{err: err}
				return
			}
			outcomes[i] = outcome{handle: models.UploadedFile{Name: f.Name, Size: f.Size, URL: url}}
		}(i, f)
	}
	wg.Wait()

	var result BatchResult
	for i, out := range outcomes {
		if out.err != nil {
			metrics.UploadsProcessed.WithLabelValues(string(fieldKey), "failed").Inc()
			result.Failures = append(result.Failures, FileError{Name: files[i].Name, Err: out.err})
			continue
		}
		metrics.UploadsProcessed.WithLabelValues(string(fieldKey), "succeeded").Inc()
		result.Handles = append(result.Handles, out.handle)
	}

	o.log.Info("upload batch finished", map[string]interface{}{
		"field":     string(fieldKey),
		"succeeded": result.Succeeded(),
		"failed":    result.Failed(),
	})

	return result
}

func (o *Orchestrator) uploadOne(ctx context.Context, fieldKey schema.FieldKey, f File) (string, error) {
	key := fmt.Sprintf("%s/%s/%s-%s", o.ownerID, fieldKey, uuid.New().String(), sanitizeName(f.Name))

	url, err := o.blob.PutObject(ctx, o.bucket, key, f.ContentType, f.Content)
	if err != nil {
		o.log.Warn("file upload failed", map[string]interface{}{
			"field": string(fieldKey),
			"file":  f.Name,
			"error": err.Error(),
		})
		return "", stderrors.NewUploadFailedError(f.Name, err)
	}
	return url, nil
}

func sanitizeName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", " ", "_")
	return replacer.Replace(name)
}
