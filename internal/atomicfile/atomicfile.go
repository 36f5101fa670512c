// Package atomicfile replaces files without leaving torn writes behind.
package atomicfile

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"
)

// WriteFile writes data to a temporary file next to path and renames it
// into place. A zero perm keeps the mode of an existing file, else 0644.
func WriteFile(path string, data []byte, perm os.FileMode) (err error) {
	if perm == 0 {
		perm = 0o644
		if st, statErr := os.Stat(path); statErr == nil {
			perm = st.Mode().Perm()
		}
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.Wrap(err, "create temp file")
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()

	_ = tmp.Chmod(perm)
	if _, err = tmp.Write(data); err != nil {
		return errors.Wrap(err, "write temp file")
	}
	if err = tmp.Sync(); err != nil {
		return errors.Wrap(err, "sync temp file")
	}
	if err = tmp.Close(); err != nil {
		return errors.Wrap(err, "close temp file")
	}

	if err = os.Rename(tmp.Name(), path); err != nil {
		// Windows refuses to rename over an existing file.
		_ = os.Remove(path)
		if retry := os.Rename(tmp.Name(), path); retry != nil {
			return errors.Wrap(err, "rename temp file")
		}
		err = nil
	}
	return nil
}
