package dataset

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ErrInvalidName is returned for dataset names that are empty, contain
// path separators, or lack a .csv extension.
var ErrInvalidName = errors.New("invalid dataset name")

// Store keeps uploaded dataset files on disk under dataDir/datasets.
type Store struct {
	dir string
}

// NewStore creates the datasets directory if needed.
func NewStore(dataDir string) (*Store, error) {
	dir := filepath.Join(dataDir, "datasets")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating datasets dir: %w", err)
	}
	return &Store{dir: dir}, nil
}

// FileInfo describes one stored dataset file.
type FileInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Uploaded time.Time `json:"uploaded"`
}

func cleanName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", ErrInvalidName
	}
	if !strings.EqualFold(filepath.Ext(name), ".csv") {
		return "", ErrInvalidName
	}
	return name, nil
}

// Save writes a dataset file atomically, replacing any previous file
// with the same name.
func (s *Store) Save(name string, r io.Reader) (FileInfo, error) {
	name, err := cleanName(name)
	if err != nil {
		return FileInfo{}, err
	}

	tmp, err := os.CreateTemp(s.dir, ".upload-*")
	if err != nil {
		return FileInfo{}, fmt.Errorf("creating temp file: %w", err)
	}
	size, err := io.Copy(tmp, r)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(tmp.Name())
		return FileInfo{}, fmt.Errorf("writing dataset: %w", err)
	}

	dst := filepath.Join(s.dir, name)
	if err := os.Rename(tmp.Name(), dst); err != nil {
		os.Remove(tmp.Name())
		return FileInfo{}, fmt.Errorf("storing dataset: %w", err)
	}
	return FileInfo{Name: name, Size: size, Uploaded: time.Now().UTC()}, nil
}

// Open returns a reader over a stored dataset file.
func (s *Store) Open(name string) (io.ReadCloser, error) {
	name, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		return nil, err
	}
	return f, nil
}

// List returns stored datasets, newest first.
func (s *Store) List() ([]FileInfo, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing datasets: %w", err)
	}
	var infos []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, err := cleanName(e.Name()); err != nil {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		infos = append(infos, FileInfo{
			Name:     e.Name(),
			Size:     fi.Size(),
			Uploaded: fi.ModTime().UTC(),
		})
	}
	sort.Slice(infos, func(i, j int) bool {
		if !infos[i].Uploaded.Equal(infos[j].Uploaded) {
			return infos[i].Uploaded.After(infos[j].Uploaded)
		}
		return infos[i].Name < infos[j].Name
	})
	return infos, nil
}
