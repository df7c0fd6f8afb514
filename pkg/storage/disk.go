package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
)

type diskStorage struct {
	dir    string
	prefix string
}

// NewDisk stores files in dir and reports them as prefix + "/" + name, the
// path under which the directory is served statically.
func NewDisk(dir, prefix string) (ItfStorage, error) {
	if dir == "" {
		dir = "./uploads"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &diskStorage{dir: dir, prefix: strings.TrimSuffix(prefix, "/")}, nil
}

func (d *diskStorage) Save(ctx context.Context, name string, body io.Reader, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name = filepath.Base(filepath.Clean("/" + name))
	target := filepath.Join(d.dir, name)

	f, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", name, err)
	}

	if _, err := io.Copy(f, body); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(target)
		return "", fmt.Errorf("close %s: %w", name, err)
	}

	return path.Join(d.prefix, name), nil
}

func (d *diskStorage) Delete(_ context.Context, location string) error {
	if !strings.HasPrefix(location, d.prefix+"/") {
		return ErrInvalidLocation
	}

	name := path.Base(strings.TrimPrefix(location, d.prefix+"/"))
	err := os.Remove(filepath.Join(d.dir, name))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
