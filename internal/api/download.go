package api

import (
	"io"
	"os"
	"path/filepath"
)

// Saver persists a downloaded payload and returns where it landed. The
// browser's native download handling has no terminal equivalent, so the
// capability is an interface and tests swap in a fake.
type Saver interface {
	Save(filename string, r io.Reader) (string, error)
}

// DirSaver writes downloads into a fixed directory, creating it on demand.
// An existing file with the same name is overwritten.
type DirSaver struct {
	Dir string
}

func (s DirSaver) Save(filename string, r io.Reader) (string, error) {
	if err := os.MkdirAll(s.Dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(s.Dir, filepath.Base(filename))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		os.Remove(path)
		return "", err
	}
	return path, nil
}
