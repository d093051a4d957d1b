package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kadoya0703/kakeibo/internal/receipt"
)

// SaveSnapshot writes one receipt's document snapshot to
// <jsonRoot>/<YYYY>/<id>.json. An existing file is never overwritten: the
// first free _1, _2… suffix wins. Returns the filename actually used.
func (s *Store) SaveSnapshot(result *receipt.Result, id string, year int) (string, error) {
	dir := filepath.Join(s.jsonRoot, fmt.Sprintf("%04d", year))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	data = append(data, '\n')

	name, err := writeNoClobber(dir, id, ".json", data)
	if err != nil {
		return "", fmt.Errorf("save snapshot %s: %w", id, err)
	}
	return name, nil
}

// writeNoClobber creates <dir>/<base><ext>, falling back to
// <base>_1<ext>, <base>_2<ext>… until a name is free. O_EXCL closes the
// race between two processes picking the same candidate.
func writeNoClobber(dir, base, ext string, data []byte) (string, error) {
	for index := 0; ; index++ {
		name := base + ext
		if index > 0 {
			name = fmt.Sprintf("%s_%d%s", base, index, ext)
		}

		f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return "", err
		}

		if _, err := f.Write(data); err != nil {
			f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", err
		}
		return name, nil
	}
}
