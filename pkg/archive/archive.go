// Package archive packs and unpacks config-set bundles as gzipped tar
// archives, the interchange format for export, import and pull.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/confset/confset/pkg/errors"
)

// Create packs the contents of srcDir (not the directory itself) into
// a gzipped tar archive at outPath.
func Create(srcDir, outPath string) error {
	out, err := os.Create(outPath)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to create archive %s", outPath)
	}
	defer func() {
		_ = out.Close()
	}()

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)

	err = filepath.Walk(srcDir, func(path string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(srcDir, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}

		var link string
		if info.Mode()&os.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		}
		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = filepath.ToSlash(rel)
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			f, err := os.Open(path)
			if err != nil {
				return err
			}
			_, err = io.Copy(tw, f)
			_ = f.Close()
			return err
		}
		return nil
	})
	if err != nil {
		return errors.Wrapf(err, errors.ErrIOFailure, "failed to pack %s", srcDir)
	}

	if err := tw.Close(); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to finalize archive")
	}
	if err := gz.Close(); err != nil {
		return errors.Wrap(err, errors.ErrIOFailure, "failed to finalize archive")
	}
	return out.Close()
}

// Extract unpacks a gzipped tar stream into dstDir. Entries escaping
// dstDir are rejected.
func Extract(r io.Reader, dstDir string) error {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return errors.Wrap(err, errors.ErrInvalidInput, "bundle is not a gzipped tar archive")
	}
	defer func() {
		_ = gz.Close()
	}()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrInvalidInput, "malformed bundle archive")
		}

		name := filepath.FromSlash(hdr.Name)
		if strings.Contains(hdr.Name, "..") || filepath.IsAbs(name) {
			return errors.Newf(errors.ErrInvalidInput, "bundle entry %q escapes the target directory", hdr.Name)
		}
		target := filepath.Join(dstDir, name)

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, os.FileMode(hdr.Mode).Perm()); err != nil {
				return errors.Wrapf(err, errors.ErrIOFailure, "failed to create %s", target)
			}
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Wrapf(err, errors.ErrIOFailure, "failed to create parent of %s", target)
			}
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return errors.Wrapf(err, errors.ErrIOFailure, "failed to create symlink %s", target)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
				return errors.Wrapf(err, errors.ErrIOFailure, "failed to create parent of %s", target)
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, os.FileMode(hdr.Mode).Perm())
			if err != nil {
				return errors.Wrapf(err, errors.ErrIOFailure, "failed to create %s", target)
			}
			if _, err := io.Copy(f, tr); err != nil {
				_ = f.Close()
				return errors.Wrapf(err, errors.ErrIOFailure, "failed to write %s", target)
			}
			if err := f.Close(); err != nil {
				return errors.Wrapf(err, errors.ErrIOFailure, "failed to write %s", target)
			}
		default:
			// Hard links, devices and the like have no place in a
			// config bundle.
			return errors.Newf(errors.ErrInvalidInput, "bundle entry %q has unsupported type", hdr.Name)
		}
	}
}
