package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	"pdl-server/modules/common/apperr"
	"pdl-server/modules/common/config"
)

// Client uploads binary buffers to a Supabase Storage bucket and returns the
// public URL. One upload is a single atomic operation from the pipeline's
// point of view.
type Client struct {
	sb      *supabase.Client
	bucket  string
	folder  string
	timeout time.Duration
	log     *zap.Logger
}

// NewClient - Supabase Storage 클라이언트 생성
func NewClient(cfg *config.Config, log *zap.Logger) (*Client, error) {
	sb, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to create Supabase client: %w", err)
	}

	return &Client{
		sb:      sb,
		bucket:  cfg.StorageBucket,
		folder:  strings.Trim(cfg.StorageFolder, "/"),
		timeout: cfg.UploadTimeout,
		log:     log,
	}, nil
}

// Upload stores data under the configured folder and returns its public URL.
// The call is bounded by the configured timeout; every failure is tagged as a
// store-upload error.
func (c *Client) Upload(ctx context.Context, data []byte, filename, contentType string) (string, error) {
	path := c.folder + "/" + filename

	c.log.Info("📤 Uploading to storage",
		zap.String("bucket", c.bucket),
		zap.String("path", path),
		zap.Int("bytes", len(data)))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	// storage-go calls carry no context, so the timeout is enforced around
	// the call.
	errCh := make(chan error, 1)
	go func() {
		upsert := true
		_, err := c.sb.Storage.UploadFile(c.bucket, path, bytes.NewReader(data), storage_go.FileOptions{
			ContentType: &contentType,
			Upsert:      &upsert,
		})
		errCh <- err
	}()

	select {
	case <-ctx.Done():
		return "", apperr.Wrap(apperr.StoreUpload, "Failed to store image.", ctx.Err())
	case err := <-errCh:
		if err != nil {
			return "", apperr.Wrap(apperr.StoreUpload, "Failed to store image.", err)
		}
	}

	res := c.sb.Storage.GetPublicUrl(c.bucket, path)
	if res.SignedURL == "" {
		return "", apperr.New(apperr.StoreUpload, "Failed to store image.")
	}

	c.log.Info("✅ Upload complete", zap.String("url", res.SignedURL))
	return res.SignedURL, nil
}
