package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"notes-api/internal/domain"
	"notes-api/internal/storage"
)

// DefaultExportURLExpiry bounds the lifetime of presigned download links.
const DefaultExportURLExpiry = 15 * time.Minute

// Export describes an uploaded notes archive.
type Export struct {
	Key       string
	Location  string
	URL       string
	Notes     int
	CreatedAt time.Time
	ExpiresAt time.Time
}

// ExportConfig locates exports in object storage.
type ExportConfig struct {
	Bucket    string
	KeyPrefix string
	URLExpiry time.Duration
}

// ExportService snapshots a user's notes into object storage.
type ExportService interface {
	Export(ctx context.Context, userID int64) (*Export, error)
	List(ctx context.Context, userID int64) ([]storage.ObjectInfo, error)
	Purge(ctx context.Context, userID int64) error
}

type exportService struct {
	notes   NoteService
	storage storage.Service
	cfg     ExportConfig
	now     func() time.Time
}

func NewExportService(notes NoteService, store storage.Service, cfg ExportConfig) ExportService {
	if cfg.URLExpiry <= 0 {
		cfg.URLExpiry = DefaultExportURLExpiry
	}
	cfg.KeyPrefix = strings.Trim(cfg.KeyPrefix, "/")
	return &exportService{
		notes:   notes,
		storage: store,
		cfg:     cfg,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

type exportedNote struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type exportDocument struct {
	UserID     int64          `json:"user_id"`
	ExportedAt time.Time      `json:"exported_at"`
	Total      int            `json:"total"`
	Notes      []exportedNote `json:"notes"`
}

func (s *exportService) Export(ctx context.Context, userID int64) (*Export, error) {
	notes, err := s.notes.List(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	doc := exportDocument{
		UserID:     userID,
		ExportedAt: now,
		Total:      len(notes),
		Notes:      toExportedNotes(notes),
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode export: %w", err)
	}

	key := path.Join(s.userPrefix(userID), fmt.Sprintf("%s-%s.json", now.Format("20060102T150405Z"), uuid.NewString()))
	location, err := s.storage.Put(ctx, bytes.NewReader(payload), storage.PutOptions{
		Bucket:      s.cfg.Bucket,
		Key:         key,
		ContentType: "application/json",
	})
	if err != nil {
		return nil, fmt.Errorf("store export: %w", err)
	}

	url, err := s.storage.GetObjectURL(ctx, s.cfg.Bucket, key, s.cfg.URLExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign export url: %w", err)
	}

	return &Export{
		Key:       key,
		Location:  location,
		URL:       url,
		Notes:     len(notes),
		CreatedAt: now,
		ExpiresAt: now.Add(s.cfg.URLExpiry),
	}, nil
}

func (s *exportService) List(ctx context.Context, userID int64) ([]storage.ObjectInfo, error) {
	objects, err := s.storage.ListObjects(ctx, s.cfg.Bucket, s.userPrefix(userID)+"/")
	if err != nil {
		return nil, fmt.Errorf("list exports: %w", err)
	}
	return objects, nil
}

func (s *exportService) Purge(ctx context.Context, userID int64) error {
	if err := s.storage.DeletePrefix(ctx, s.cfg.Bucket, s.userPrefix(userID)+"/"); err != nil {
		return fmt.Errorf("purge exports: %w", err)
	}
	return nil
}

func (s *exportService) userPrefix(userID int64) string {
	return path.Join(s.cfg.KeyPrefix, fmt.Sprintf("user-%d", userID))
}

func toExportedNotes(notes []domain.Note) []exportedNote {
	out := make([]exportedNote, len(notes))
	for i, n := range notes {
		out[i] = exportedNote{
			ID:        n.ID,
			Title:     n.Title,
			Content:   n.Content,
			CreatedAt: n.CreatedAt,
			UpdatedAt: n.UpdatedAt,
		}
	}
	return out
}
