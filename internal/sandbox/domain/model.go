package domain

import (
	"errors"
	"time"
)

var ErrFileNotFound = errors.New("file not found")

// SweepBatchSize is how many expired rows one sweep invocation handles.
const SweepBatchSize = 500

// File is an uploaded sandbox object. Rows are soft-deleted.
type File struct {
	ID          string     `json:"id"`
	OwnerUID    string     `json:"-"`
	ObjectKey   string     `json:"object_key"`
	Filename    string     `json:"filename"`
	ContentType string     `json:"content_type"`
	SizeBytes   int64      `json:"size_bytes"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   time.Time  `json:"expires_at"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty"`
}

func (f *File) Active(now time.Time) bool {
	return f.DeletedAt == nil && now.Before(f.ExpiresAt)
}

type UploadRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size" binding:"gte=0"`
}

// SignedURL is a presigned object URL and the moment it stops working.
type SignedURL struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

type UploadTicket struct {
	File   *File     `json:"file"`
	Upload SignedURL `json:"upload"`
}

type SweepResult struct {
	Expired    int `json:"expired"`
	Marked     int `json:"marked"`
	BlobErrors int `json:"blob_errors"`
}
