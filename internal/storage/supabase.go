package storage

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	storage_go "github.com/supabase-community/storage-go"
)

// SupabaseStore writes to Supabase Storage with the service role client.
type SupabaseStore struct {
	client *storage_go.Client
	log    zerolog.Logger

	// storage-go keeps upload options in headers shared by every call on the
	// client, so uploads are serialised.
	mu      sync.Mutex
	buckets sync.Map
}

func NewSupabaseStore(client *storage_go.Client, log zerolog.Logger) *SupabaseStore {
	return &SupabaseStore{
		client: client,
		log:    log.With().Str("component", "storage").Str("backend", "supabase").Logger(),
	}
}

func (s *SupabaseStore) EnsureBucket(ctx context.Context, bucket string, public bool) error {
	if _, ok := s.buckets.Load(bucket); ok {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	buckets, err := s.client.ListBuckets()
	if err != nil {
		// Listing needs elevated rights on some projects; the upload may still work.
		s.log.Warn().Err(err).Str("bucket", bucket).Msg("list buckets failed, continuing with upload")
		return nil
	}
	for _, b := range buckets {
		if b.Name == bucket || b.Id == bucket {
			s.buckets.Store(bucket, struct{}{})
			return nil
		}
	}

	if _, err := s.client.CreateBucket(bucket, storage_go.BucketOptions{Public: public}); err != nil {
		return fmt.Errorf("create bucket %s: %w", bucket, err)
	}
	s.log.Info().Str("bucket", bucket).Bool("public", public).Msg("bucket created")
	s.buckets.Store(bucket, struct{}{})
	return nil
}

func (s *SupabaseStore) Put(ctx context.Context, bucket, path string, r io.Reader, contentType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	upsert := true
	cc := cacheControl

	s.mu.Lock()
	_, err := s.client.UploadFile(bucket, path, r, storage_go.FileOptions{
		CacheControl: &cc,
		ContentType:  &contentType,
		Upsert:       &upsert,
	})
	s.mu.Unlock()
	if err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}

	return s.client.GetPublicUrl(bucket, path).SignedURL, nil
}

func (s *SupabaseStore) Remove(ctx context.Context, bucket string, paths []string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := s.client.RemoveFile(bucket, paths); err != nil {
		return fmt.Errorf("remove from %s: %w", bucket, err)
	}
	return nil
}
