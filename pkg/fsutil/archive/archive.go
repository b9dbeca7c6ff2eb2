// Package archive packages directories and in-memory files into tar streams.
//
// Archives are reproducible: entries are sorted, timestamps and ownership are
// zeroed and file modes are normalized to 0644 (0755 for executables).
package archive

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// ErrNotDirectory is returned when an archive root is not a directory.
var ErrNotDirectory = errors.New("archive root is not a directory")

const (
	modeRegular    = 0o644
	modeExecutable = 0o755
)

// Entry is a single file to be written into an archive.
type Entry struct {
	// Name is the slash separated path inside the archive.
	Name       string
	Content    []byte
	Executable bool
}

// Options control how an archive is written.
type Options struct {
	// Prefix is prepended to every entry name.
	Prefix string
	// Gzip compresses the tar stream.
	Gzip bool
}

// CollectFiles walks root and returns the sorted, slash separated paths of
// every regular file relative to root.
func CollectFiles(root string) ([]string, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotDirectory, root)
	}

	var files []string

	err = filepath.WalkDir(root, func(current string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !entry.Type().IsRegular() {
			return nil
		}

		rel, err := filepath.Rel(root, current)
		if err != nil {
			return fmt.Errorf("get relative path for %s: %w", current, err)
		}

		files = append(files, filepath.ToSlash(rel))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory %s: %w", root, err)
	}

	slices.Sort(files)

	return files, nil
}

// ReadDirectory loads every regular file below root as an Entry.
func ReadDirectory(root string) ([]Entry, error) {
	files, err := CollectFiles(root)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(files))

	for _, rel := range files {
		full := filepath.Join(root, filepath.FromSlash(rel))

		info, err := os.Stat(full)
		if err != nil {
			return nil, fmt.Errorf("stat file %s: %w", full, err)
		}

		// #nosec G304 -- path collected by walking root
		content, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("read file %s: %w", full, err)
		}

		entries = append(entries, Entry{
			Name:       rel,
			Content:    content,
			Executable: info.Mode().Perm()&0o111 != 0,
		})
	}

	return entries, nil
}

// Directory writes every regular file below root to w.
func Directory(w io.Writer, root string, opts Options) error {
	entries, err := ReadDirectory(root)
	if err != nil {
		return err
	}

	return Write(w, entries, opts)
}

// Write writes entries to w in name order.
func Write(w io.Writer, entries []Entry, opts Options) error {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b Entry) int {
		return strings.Compare(a.Name, b.Name)
	})

	if !opts.Gzip {
		return writeTar(w, sorted, opts.Prefix)
	}

	gzipWriter := gzip.NewWriter(w)
	gzipWriter.ModTime = time.Time{}

	err := writeTar(gzipWriter, sorted, opts.Prefix)
	if err != nil {
		return err
	}

	err = gzipWriter.Close()
	if err != nil {
		return fmt.Errorf("close gzip writer: %w", err)
	}

	return nil
}

func writeTar(w io.Writer, entries []Entry, prefix string) error {
	tarWriter := tar.NewWriter(w)

	for _, entry := range entries {
		err := writeTarEntry(tarWriter, entry, prefix)
		if err != nil {
			return err
		}
	}

	err := tarWriter.Close()
	if err != nil {
		return fmt.Errorf("close tar writer: %w", err)
	}

	return nil
}

func writeTarEntry(tarWriter *tar.Writer, entry Entry, prefix string) error {
	mode := int64(modeRegular)
	if entry.Executable {
		mode = modeExecutable
	}

	name := entry.Name
	if prefix != "" {
		name = path.Join(prefix, name)
	}

	header := &tar.Header{
		Typeflag: tar.TypeReg,
		Name:     name,
		Mode:     mode,
		Size:     int64(len(entry.Content)),
		ModTime:  time.Unix(0, 0),
	}

	err := tarWriter.WriteHeader(header)
	if err != nil {
		return fmt.Errorf("write tar header for %s: %w", name, err)
	}

	_, err = tarWriter.Write(entry.Content)
	if err != nil {
		return fmt.Errorf("write %s to tar: %w", name, err)
	}

	return nil
}
