package scanner

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
)

type FileInfo struct {
	Path string
	Size int64
}

// Scanner finds source files under a root by extension.
type Scanner struct {
	fs         afero.Fs
	rootDir    string
	extensions map[string]bool
}

// New returns a scanner over the OS filesystem. With no extensions every
// regular file is a target.
func New(rootDir string, extensions ...string) *Scanner {
	return NewFs(afero.NewOsFs(), rootDir, extensions...)
}

func NewFs(fs afero.Fs, rootDir string, extensions ...string) *Scanner {
	exts := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		exts[strings.ToLower(ext)] = true
	}
	return &Scanner{fs: fs, rootDir: rootDir, extensions: exts}
}

// Scan walks the root and returns matching files sorted by path. Hidden
// directories below the root are skipped. A root that is itself a file is
// returned as is, whatever its extension.
func (s *Scanner) Scan() ([]FileInfo, error) {
	var files []FileInfo
	err := afero.Walk(s.fs, s.rootDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != s.rootDir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if path == s.rootDir || s.isTargetFile(path) {
			files = append(files, FileInfo{Path: path, Size: info.Size()})
		}
		return nil
	})

	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, err
}

func (s *Scanner) isTargetFile(path string) bool {
	if len(s.extensions) == 0 {
		return true
	}
	return s.extensions[strings.ToLower(filepath.Ext(path))]
}
