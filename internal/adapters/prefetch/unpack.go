package prefetch

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.trai.ch/burrow/internal/core/domain"
	"go.trai.ch/zerr"
)

// unpackTarball extracts a gzipped npm tarball into dest, stripping the
// single top-level directory (conventionally "package/") the registry wraps
// content in. Extraction goes to a staging directory first so a failed
// unpack never leaves a partial store entry.
func unpackTarball(tarPath, dest string) error {
	if err := os.MkdirAll(filepath.Dir(dest), domain.DirPerm); err != nil {
		return err
	}

	staging, err := os.MkdirTemp(filepath.Dir(dest), ".unpack-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(staging)

	// #nosec G304 -- tarPath is a temp file we created
	f, err := os.Open(tarPath)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return zerr.Wrap(err, "not a gzipped tarball")
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return zerr.Wrap(err, "tar read failed")
		}

		rel, ok := stripRoot(hdr.Name)
		if !ok {
			continue
		}
		target, err := securePath(staging, rel)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, domain.DirPerm); err != nil {
				return err
			}

		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
				return err
			}
			perm := os.FileMode(domain.FilePerm)
			if hdr.FileInfo().Mode()&0o111 != 0 {
				perm = domain.ExecPerm
			}
			if err := writeFile(target, tr, perm); err != nil {
				return err
			}

		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), domain.DirPerm); err != nil {
				return err
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}

	os.RemoveAll(dest)
	return os.Rename(staging, dest)
}

// stripRoot drops the first path component of a tar member name.
func stripRoot(name string) (string, bool) {
	name = strings.TrimPrefix(name, "./")
	i := strings.Index(name, "/")
	if i < 0 || i == len(name)-1 {
		return "", false
	}
	return name[i+1:], true
}

// securePath joins rel under base, rejecting traversal outside it.
func securePath(base, rel string) (string, error) {
	target := filepath.Join(base, filepath.FromSlash(rel))
	if !strings.HasPrefix(target, filepath.Clean(base)+string(os.PathSeparator)) {
		return "", zerr.New("tar member escapes extraction directory: " + rel)
	}
	return target, nil
}

func writeFile(path string, r io.Reader, perm os.FileMode) error {
	out, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
