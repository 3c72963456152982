package fetch

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Unzip extracts every regular member of the archive at path into dest and
// returns the extracted file paths in archive order. Members whose names
// would escape dest are rejected.
func Unzip(path, dest string) ([]string, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open archive %s: %w", path, err)
	}
	defer r.Close()

	if err := os.MkdirAll(dest, 0o755); err != nil {
		return nil, fmt.Errorf("create extract dir: %w", err)
	}
	root, err := filepath.Abs(dest)
	if err != nil {
		return nil, err
	}

	var out []string
	for _, f := range r.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return out, fmt.Errorf("archive member %q escapes %s", f.Name, dest)
		}
		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return out, err
			}
			continue
		}
		if err := extract(f, target); err != nil {
			return out, fmt.Errorf("extract %s: %w", f.Name, err)
		}
		out = append(out, target)
	}
	return out, nil
}

func extract(f *zip.File, target string) error {
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	w, err := os.Create(target)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, rc); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}
