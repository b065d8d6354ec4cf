// Package attachments stores files attached to catalog posts.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNoUploader is returned when a post carries an attachment but no uploader
// is configured.
var ErrNoUploader = errors.New("attachment storage is not configured")

// Uploader stores an attachment and returns the URL it can be fetched from.
type Uploader interface {
	Upload(ctx context.Context, postID, name, contentType string, r io.Reader) (string, error)
}

// NopUploader rejects every upload.
type NopUploader struct{}

func (NopUploader) Upload(context.Context, string, string, string, io.Reader) (string, error) {
	return "", ErrNoUploader
}

// GCSUploaderConfig holds configuration for the GCS uploader.
type GCSUploaderConfig struct {
	BucketName   string
	ObjectPrefix string
	// PublicBaseURL defaults to https://storage.googleapis.com.
	PublicBaseURL string
}

// GCSUploader writes attachments to a GCS bucket under
// <prefix>/<postID>/<uuid>-<name>.
type GCSUploader struct {
	client GCSClient
	config GCSUploaderConfig
	logger zerolog.Logger
}

// NewGCSUploader creates an uploader for the configured bucket.
func NewGCSUploader(client GCSClient, config GCSUploaderConfig, logger zerolog.Logger) (*GCSUploader, error) {
	if client == nil {
		return nil, errors.New("GCS client cannot be nil")
	}
	if config.BucketName == "" {
		return nil, errors.New("GCS bucket name is required")
	}
	if config.PublicBaseURL == "" {
		config.PublicBaseURL = "https://storage.googleapis.com"
	}
	return &GCSUploader{
		client: client,
		config: config,
		logger: logger.With().Str("component", "GCSUploader").Str("bucket", config.BucketName).Logger(),
	}, nil
}

// Upload streams r to a new object and returns its public URL. A partially
// written object is removed if the upload fails.
func (u *GCSUploader) Upload(ctx context.Context, postID, name, contentType string, r io.Reader) (string, error) {
	if postID == "" {
		return "", errors.New("post id is required")
	}
	objectName := path.Join(u.config.ObjectPrefix, postID, uuid.NewString()+"-"+sanitizeName(name))
	obj := u.client.Bucket(u.config.BucketName).Object(objectName)

	w := obj.NewWriter(ctx, contentType)
	written, copyErr := io.Copy(w, r)
	closeErr := w.Close()
	if copyErr != nil || closeErr != nil {
		if delErr := obj.Delete(context.WithoutCancel(ctx)); delErr != nil {
			u.logger.Warn().Err(delErr).Str("object_name", objectName).Msg("Failed to remove partial attachment.")
		}
		if copyErr != nil {
			return "", fmt.Errorf("failed to stream attachment %s: %w", objectName, copyErr)
		}
		return "", fmt.Errorf("failed to close attachment writer for %s: %w", objectName, closeErr)
	}

	u.logger.Info().Str("object_name", objectName).Int64("bytes_written", written).Msg("Uploaded attachment.")
	return strings.TrimSuffix(u.config.PublicBaseURL, "/") + "/" + u.config.BucketName + "/" + objectName, nil
}

// sanitizeName keeps the base name and replaces characters that are awkward in URLs.
func sanitizeName(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "attachment"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}
