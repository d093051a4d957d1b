package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/kadoya0703/kakeibo/internal/logger"
)

// LoadReceiptImages scans inputDir and returns the receipt images to
// process, sorted by name. Files with an extension outside exts are not
// receipts and move straight to errorDir. Both directories are created on
// demand.
func LoadReceiptImages(ctx context.Context, inputDir, errorDir string, exts []string) ([]string, error) {
	log := logger.FromContext(ctx)

	if err := os.MkdirAll(inputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create input dir: %w", err)
	}
	if err := os.MkdirAll(errorDir, 0o755); err != nil {
		return nil, fmt.Errorf("create error dir: %w", err)
	}

	allowed := make(map[string]bool, len(exts))
	for _, e := range exts {
		allowed[strings.ToLower(e)] = true
	}

	entries, err := os.ReadDir(inputDir)
	if err != nil {
		return nil, fmt.Errorf("scan input dir: %w", err)
	}

	var images []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(inputDir, e.Name())
		if !allowed[strings.ToLower(filepath.Ext(e.Name()))] {
			log.Error().Str("file", e.Name()).Msg("unsupported extension, moving to error")
			if err := MoveToError(path, errorDir); err != nil {
				log.Error().Err(err).Str("file", e.Name()).Msg("move to error failed")
			}
			continue
		}
		images = append(images, path)
	}

	sort.Strings(images)
	return images, nil
}

// MoveToProcessed moves a handled source image to
// <processedDir>/<YYYY>/<id><ext>, the year taken from the identifier's
// leading digits. Collisions get a numeric suffix instead of overwriting.
func MoveToProcessed(src, id, processedDir string) (string, error) {
	year := yearFromID(id)
	dir := filepath.Join(processedDir, year)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create processed dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(src))
	dst, err := moveNoClobber(src, dir, id, ext)
	if err != nil {
		return "", fmt.Errorf("move to processed: %w", err)
	}
	return dst, nil
}

// MoveToError moves a rejected or failed file into errorDir under its own
// name, collision-suffixed.
func MoveToError(src, errorDir string) error {
	if err := os.MkdirAll(errorDir, 0o755); err != nil {
		return fmt.Errorf("create error dir: %w", err)
	}

	name := filepath.Base(src)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)

	if _, err := moveNoClobber(src, errorDir, base, ext); err != nil {
		return fmt.Errorf("move to error: %w", err)
	}
	return nil
}

func moveNoClobber(src, dir, base, ext string) (string, error) {
	for index := 0; ; index++ {
		name := base + ext
		if index > 0 {
			name = fmt.Sprintf("%s_%d%s", base, index, ext)
		}
		dst := filepath.Join(dir, name)
		if _, err := os.Stat(dst); err == nil {
			continue
		} else if !os.IsNotExist(err) {
			return "", err
		}
		if err := os.Rename(src, dst); err != nil {
			return "", err
		}
		return dst, nil
	}
}

// yearFromID recovers the YYYY bucket from a "YYYYMMDD_..." identifier.
func yearFromID(id string) string {
	if len(id) >= 4 {
		if _, err := strconv.Atoi(id[:4]); err == nil {
			return id[:4]
		}
	}
	return "unknown"
}
