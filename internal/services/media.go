package services

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"orangecat/internal/metrics"
	"orangecat/internal/models"
	"orangecat/internal/storage"
)

// allowed image types and the extension they are stored under.
var imageTypes = map[string]string{
	"image/jpeg": "jpg",
	"image/png":  "png",
	"image/webp": "webp",
	"image/gif":  "gif",
}

type MediaService struct {
	store    storage.BlobStore
	profiles IProfileService
	log      zerolog.Logger
	now      func() time.Time
}

func NewMediaService(store storage.BlobStore, profiles IProfileService, log zerolog.Logger) *MediaService {
	return &MediaService{
		store:    store,
		profiles: profiles,
		log:      log.With().Str("component", "media").Logger(),
		now:      time.Now,
	}
}

// Upload stores an avatar or banner for userID and points the profile at it.
// The content type is sniffed from the bytes; the client's claim is ignored.
func (s *MediaService) Upload(ctx context.Context, token string, userID uuid.UUID, kind models.MediaKind, r io.Reader) (models.Upload, error) {
	data, err := io.ReadAll(io.LimitReader(r, kind.MaxSize+1))
	if err != nil {
		return models.Upload{}, fmt.Errorf("read %s: %w", kind.Name, err)
	}
	if int64(len(data)) > kind.MaxSize {
		return models.Upload{}, models.ErrFileTooLarge
	}
	if len(data) == 0 {
		return models.Upload{}, models.Invalid("file", "No file provided")
	}

	mtype := mimetype.Detect(data)
	ext, ok := imageTypes[mtype.String()]
	if !ok {
		return models.Upload{}, models.ErrUnsupportedMedia
	}

	if err := s.store.EnsureBucket(ctx, kind.Bucket, true); err != nil {
		return models.Upload{}, err
	}
	path := fmt.Sprintf("%s/%d.%s", userID, s.now().UnixMilli(), ext)
	url, err := s.store.Put(ctx, kind.Bucket, path, bytes.NewReader(data), mtype.String())
	if err != nil {
		return models.Upload{}, err
	}
	metrics.UploadsBytesTotal.WithLabelValues(kind.Bucket).Add(float64(len(data)))

	set := s.profiles.SetAvatar
	if kind == models.Banner {
		set = s.profiles.SetBanner
	}
	if _, err := set(ctx, token, userID, url); err != nil {
		// Do not leave an orphan behind when the profile write fails.
		if rmErr := s.store.Remove(ctx, kind.Bucket, []string{path}); rmErr != nil {
			s.log.Warn().Err(rmErr).Str("path", path).Msg("remove orphaned upload")
		}
		return models.Upload{}, err
	}

	s.log.Info().
		Str("user_id", userID.String()).
		Str("bucket", kind.Bucket).
		Int("size", len(data)).
		Msg("image uploaded")
	return models.Upload{PublicURL: url, Size: int64(len(data)), Path: path}, nil
}
