package service

import (
	"context"
	"errors"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hecopilot/copilot-backend/internal/apperr"
	"github.com/hecopilot/copilot-backend/internal/logging"
	"github.com/hecopilot/copilot-backend/internal/metrics"
	"github.com/hecopilot/copilot-backend/internal/sandbox/domain"
	"github.com/hecopilot/copilot-backend/internal/storage/objectstore"
)

const maxUploadBytes = 50 << 20

type Repository interface {
	Create(ctx context.Context, f *domain.File) error
	ListByOwner(ctx context.Context, owner string, now time.Time) ([]domain.File, error)
	Get(ctx context.Context, id string) (*domain.File, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.File, error)
	MarkDeleted(ctx context.Context, ids []string, now time.Time) (int, error)
}

type Options struct {
	SignedURLTTL time.Duration
	FileTTL      time.Duration
}

type SandboxService struct {
	repo  Repository
	store objectstore.Store
	opts  Options
	now   func() time.Time
}

// NewSandboxService wires the file sandbox. store may be nil when no bucket
// is configured; every operation then fails with a configuration error.
func NewSandboxService(repo Repository, store objectstore.Store, opts Options) *SandboxService {
	if opts.SignedURLTTL <= 0 {
		opts.SignedURLTTL = 15 * time.Minute
	}
	if opts.FileTTL <= 0 {
		opts.FileTTL = 24 * time.Hour
	}
	return &SandboxService{repo: repo, store: store, opts: opts, now: time.Now}
}

func (s *SandboxService) ready() error {
	if s.store == nil {
		return apperr.MissingSetting("S3_BUCKET")
	}
	return nil
}

// CreateUpload records a new file and returns a presigned PUT URL for it.
func (s *SandboxService) CreateUpload(ctx context.Context, owner string, req domain.UploadRequest) (*domain.UploadTicket, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	name := sanitizeFilename(req.Filename)
	if name == "" {
		return nil, apperr.InvalidInput("Missing filename")
	}
	if req.Size < 0 || req.Size > maxUploadBytes {
		return nil, apperr.InvalidInput("Invalid size")
	}
	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	now := s.now()
	id := uuid.NewString()
	f := &domain.File{
		ID:          id,
		OwnerUID:    owner,
		ObjectKey:   "sandbox/" + owner + "/" + id + "/" + name,
		Filename:    name,
		ContentType: contentType,
		SizeBytes:   req.Size,
		ExpiresAt:   now.Add(s.opts.FileTTL),
	}

	url, err := s.store.PresignPut(ctx, f.ObjectKey, contentType, s.opts.SignedURLTTL)
	if err != nil {
		return nil, apperr.Upstream(err.Error(), err)
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, apperr.Propagate("create file", err)
	}

	return &domain.UploadTicket{
		File:   f,
		Upload: domain.SignedURL{URL: url, ExpiresAt: now.Add(s.opts.SignedURLTTL)},
	}, nil
}

func (s *SandboxService) List(ctx context.Context, owner string) ([]domain.File, error) {
	files, err := s.repo.ListByOwner(ctx, owner, s.now())
	if err != nil {
		return nil, apperr.Propagate("list files", err)
	}
	return files, nil
}

// DownloadURL presigns a GET for an active file owned by owner.
func (s *SandboxService) DownloadURL(ctx context.Context, owner, id string) (*domain.SignedURL, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	f, err := s.owned(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	now := s.now()
	ttl := s.opts.SignedURLTTL
	if left := f.ExpiresAt.Sub(now); left < ttl {
		ttl = left
	}

	url, err := s.store.PresignGet(ctx, f.ObjectKey, ttl)
	if err != nil {
		return nil, apperr.Upstream(err.Error(), err)
	}
	return &domain.SignedURL{URL: url, ExpiresAt: now.Add(ttl)}, nil
}

// Delete removes the blob (best effort) and marks the row deleted.
func (s *SandboxService) Delete(ctx context.Context, owner, id string) error {
	if err := s.ready(); err != nil {
		return err
	}

	f, err := s.owned(ctx, owner, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, []string{f.ObjectKey}); err != nil {
		logging.New(ctx).LogWarnf("sandbox.delete", "blob %s: %v", f.ObjectKey, err)
	}
	if _, err := s.repo.MarkDeleted(ctx, []string{f.ID}, s.now()); err != nil {
		return apperr.Propagate("delete file", err)
	}
	return nil
}

// Sweep handles one batch of expired files. Blob delete failures are logged
// and counted; the rows are marked deleted regardless.
func (s *SandboxService) Sweep(ctx context.Context) (*domain.SweepResult, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}

	now := s.now()
	expired, err := s.repo.ListExpired(ctx, now, domain.SweepBatchSize)
	if err != nil {
		return nil, apperr.Propagate("list expired files", err)
	}

	res := &domain.SweepResult{Expired: len(expired)}
	if len(expired) == 0 {
		return res, nil
	}

	keys := make([]string, 0, len(expired))
	ids := make([]string, 0, len(expired))
	for _, f := range expired {
		keys = append(keys, f.ObjectKey)
		ids = append(ids, f.ID)
	}

	log := logging.New(ctx)
	if err := s.store.Delete(ctx, keys); err != nil {
		res.BlobErrors = len(keys)
		log.LogWarnf("sandbox.sweep", "blob delete failed for %d objects: %v", len(keys), err)
	}

	marked, err := s.repo.MarkDeleted(ctx, ids, now)
	if err != nil {
		return nil, apperr.Propagate("mark expired files", err)
	}
	res.Marked = marked

	metrics.RecordSweep("deleted", marked)
	metrics.RecordSweep("blob_error", res.BlobErrors)
	log.LogInfof("sandbox.sweep", "expired=%d marked=%d blob_errors=%d", res.Expired, res.Marked, res.BlobErrors)
	return res, nil
}

func (s *SandboxService) owned(ctx context.Context, owner, id string) (*domain.File, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, apperr.NotFound("file not found", domain.ErrFileNotFound)
	}

	f, err := s.repo.Get(ctx, id)
	if errors.Is(err, domain.ErrFileNotFound) {
		return nil, apperr.NotFound("file not found", err)
	}
	if err != nil {
		return nil, apperr.Propagate("load file", err)
	}
	if f.OwnerUID != owner || !f.Active(s.now()) {
		return nil, apperr.NotFound("file not found", domain.ErrFileNotFound)
	}
	return f, nil
}

// sanitizeFilename keeps the last path element and drops control characters.
func sanitizeFilename(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "\\", "/"))
	if name == "" {
		return ""
	}
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, name)
}
