package tree

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/zerr"
)

// copyDir recursively copies src into dest, preserving symlinks and the
// executable bit on regular files.
func copyDir(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return zerr.Wrap(err, "store walk failed")
		}

		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)

		switch {
		case d.IsDir():
			return os.MkdirAll(target, domain.DirPerm)

		case d.Type()&fs.ModeSymlink != 0:
			linkTarget, err := os.Readlink(path)
			if err != nil {
				return zerr.Wrap(err, "readlink failed")
			}
			return os.Symlink(linkTarget, target)

		default:
			return copyFile(path, target)
		}
	})
}

func copyFile(src, dest string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	perm := os.FileMode(domain.FilePerm)
	if info.Mode()&0o111 != 0 {
		perm = domain.ExecPerm
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
