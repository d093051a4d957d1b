// Package cloudsync pulls receipt images from a Cloud Storage inbox into the
// local input directory and files each object under a processed or error
// prefix once the batch has dealt with it.
package cloudsync

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"

	"github.com/kadoya0703/kakeibo/internal/logger"
)

// Syncer moves objects between the inbox, processed and error prefixes of
// one bucket. It assumes Application Default Credentials are configured
// (gcloud auth application-default login).
type Syncer struct {
	client          *storage.Client
	bucket          string
	inboxPrefix     string
	processedPrefix string
	errorPrefix     string
}

func New(ctx context.Context, bucket, inboxPrefix, processedPrefix, errorPrefix string) (*Syncer, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Syncer{
		client:          client,
		bucket:          bucket,
		inboxPrefix:     ensureSlash(inboxPrefix),
		processedPrefix: ensureSlash(processedPrefix),
		errorPrefix:     ensureSlash(errorPrefix),
	}, nil
}

func (s *Syncer) Close() error {
	return s.client.Close()
}

// ImportInbox downloads every object under the inbox prefix into inputDir
// and returns the object names by downloaded file path, so the caller can
// relocate each object after its image has been processed.
func (s *Syncer) ImportInbox(ctx context.Context, inputDir string) (map[string]string, error) {
	log := logger.FromContext(ctx)

	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}

	imported := map[string]string{}

	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.inboxPrefix})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("list inbox objects: %w", err)
		}
		// Directory placeholder objects have nothing to download.
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}

		dst := filepath.Join(inputDir, path.Base(attrs.Name))
		if err := s.downloadObject(ctx, attrs.Name, dst); err != nil {
			log.Error().Err(err).Str("object", attrs.Name).Msg("failed to download inbox object")
			continue
		}

		log.Info().Str("object", attrs.Name).Str("path", dst).Msg("imported inbox object")
		imported[dst] = attrs.Name
	}

	return imported, nil
}

// MarkProcessed moves one inbox object under the processed prefix.
func (s *Syncer) MarkProcessed(ctx context.Context, objectName string) error {
	return s.relocate(ctx, objectName, s.processedPrefix)
}

// MarkError moves one inbox object under the error prefix.
func (s *Syncer) MarkError(ctx context.Context, objectName string) error {
	return s.relocate(ctx, objectName, s.errorPrefix)
}

func (s *Syncer) downloadObject(ctx context.Context, objectName, dst string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	r, err := s.client.Bucket(s.bucket).Object(objectName).NewReader(ctx)
	if err != nil {
		return fmt.Errorf("open object reader: %w", err)
	}
	defer r.Close()

	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create local file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		return fmt.Errorf("download object: %w", err)
	}
	return nil
}

// relocate is copy-then-delete; GCS has no atomic rename.
func (s *Syncer) relocate(ctx context.Context, objectName, prefix string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	bkt := s.client.Bucket(s.bucket)
	src := bkt.Object(objectName)
	dst := bkt.Object(prefix + path.Base(objectName))

	if _, err := dst.CopierFrom(src).Run(ctx); err != nil {
		return fmt.Errorf("copy %s to %s: %w", objectName, prefix, err)
	}
	if err := src.Delete(ctx); err != nil {
		return fmt.Errorf("delete %s after copy: %w", objectName, err)
	}
	return nil
}

func ensureSlash(prefix string) string {
	if prefix == "" || strings.HasSuffix(prefix, "/") {
		return prefix
	}
	return prefix + "/"
}
