// Package walker discovers subtitle files under a transcript directory.
package walker

import (
	"io/fs"
	"path/filepath"
	"strings"
)

// FileInfo holds metadata about a discovered transcript file. Lesson is
// the filename stem, which namespaces the file's chunks.
type FileInfo struct {
	Path      string
	Lesson    string
	Size      int64
	MTimeUnix int64
}

// maxFileSize is the largest transcript we'll consider (10 MB).
const maxFileSize = 10 << 20

// Walk traverses the directory tree rooted at root and returns the
// discovered .srt files in lexical path order. Hidden directories and
// symlinks are skipped; unreadable entries are skipped rather than
// failing the walk.
func Walk(root string) ([]FileInfo, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	var files []FileInfo
	err = filepath.WalkDir(absRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip errors, keep walking
		}

		if d.IsDir() {
			if path != absRoot && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if !strings.EqualFold(filepath.Ext(path), ".srt") {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}
		if info.Size() > maxFileSize || info.Size() == 0 {
			return nil
		}

		files = append(files, FileInfo{
			Path:      path,
			Lesson:    strings.TrimSuffix(d.Name(), filepath.Ext(d.Name())),
			Size:      info.Size(),
			MTimeUnix: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}
