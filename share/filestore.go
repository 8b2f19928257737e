package share

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// FileStore keeps share documents as JSON files under Dir, one directory per
// collection.
type FileStore struct {
	Dir string

	rename func(oldpath, newpath string) error
}

func NewFileStore(dir string) *FileStore {
	return &FileStore{Dir: dir}
}

type staged struct {
	tmp, dst string
}

// Commit encodes every document before writing any, stages them in a
// temporary directory and then moves them into place. A failed move undoes the
// moves before it.
func (fs *FileStore) Commit(ctx context.Context, docs []Document) error {
	encoded := make([][]byte, len(docs))
	for i, d := range docs {
		if d.Collection == "" || d.ID == "" {
			return fmt.Errorf("document %d: collection and id are required", i)
		}
		b, err := json.MarshalIndent(d.Data, "", "  ")
		if err != nil {
			return fmt.Errorf("encode %s/%s: %w", d.Collection, d.ID, err)
		}
		encoded[i] = b
	}

	if err := os.MkdirAll(fs.Dir, 0o755); err != nil {
		return err
	}
	tmpDir, err := os.MkdirTemp(fs.Dir, ".commit-")
	if err != nil {
		return err
	}
	defer os.RemoveAll(tmpDir)

	var moves []staged
	for i, d := range docs {
		if err := ctx.Err(); err != nil {
			return err
		}
		tmp := filepath.Join(tmpDir, fmt.Sprintf("%d.json", i))
		if err := os.WriteFile(tmp, encoded[i], 0o644); err != nil {
			return err
		}
		moves = append(moves, staged{tmp: tmp, dst: fs.path(d.Collection, d.ID)})
	}

	for _, m := range moves {
		if err := os.MkdirAll(filepath.Dir(m.dst), 0o755); err != nil {
			return err
		}
	}

	rename := fs.rename
	if rename == nil {
		rename = os.Rename
	}

	// Documents replaced by this commit are kept next to the staged copy so a
	// failed move can put them back.
	for i, m := range moves {
		backup := m.tmp + ".prev"
		if err := rename(m.dst, backup); err != nil && !os.IsNotExist(err) {
			rollback(moves[:i])
			return err
		}
		if err := rename(m.tmp, m.dst); err != nil {
			os.Rename(backup, m.dst)
			rollback(moves[:i])
			return fmt.Errorf("move %s: %w", m.dst, err)
		}
	}
	return nil
}

func rollback(done []staged) {
	for i := len(done) - 1; i >= 0; i-- {
		os.Remove(done[i].dst)
		os.Rename(done[i].tmp+".prev", done[i].dst)
	}
}

// Load reads one document back.
func (fs *FileStore) Load(collection, id string) (map[string]any, error) {
	b, err := os.ReadFile(fs.path(collection, id))
	if err != nil {
		return nil, err
	}
	var data map[string]any
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, err
	}
	return data, nil
}

func (fs *FileStore) path(collection, id string) string {
	return filepath.Join(fs.Dir, collection, id+".json")
}

// DirCopier downloads images into Dir/images/<shareID>/ and returns the
// local path.
type DirCopier struct {
	Dir      string
	Client   *http.Client
	MaxBytes int64
}

func (c *DirCopier) Copy(ctx context.Context, shareID, srcURL string) (string, error) {
	body, ctype, err := Fetch(ctx, c.Client, srcURL, c.MaxBytes)
	if err != nil {
		return "", err
	}

	dir := filepath.Join(c.Dir, "images", shareID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	dst := filepath.Join(dir, uuid.NewString()+Extension(srcURL, ctype))
	if err := os.WriteFile(dst, body, 0o644); err != nil {
		return "", err
	}
	return dst, nil
}
