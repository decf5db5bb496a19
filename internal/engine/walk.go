package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"triage/internal/errors"
)

// resolveTarget turns a scan root into the concrete file set the analyzers
// see. A root that names a single file is scanned as-is; ignore patterns
// and the size cap apply only when walking a directory.
func (e *Engine) resolveTarget(root string) (*Target, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.NewPathNotFound(root)
	}
	abs = filepath.Clean(abs)

	info, err := os.Stat(abs)
	if err != nil {
		return nil, errors.NewPathNotFound(root)
	}

	if !info.IsDir() {
		return &Target{
			Root:  filepath.Dir(abs),
			Files: []string{filepath.Base(abs)},
		}, nil
	}

	files, err := e.findFiles(abs)
	if err != nil {
		return nil, errors.NewStorageFailure("walk", err)
	}

	return &Target{Root: abs, Files: files}, nil
}

// findFiles walks root and returns slash-separated relative paths of every
// scannable file, sorted for deterministic analyzer input.
func (e *Engine) findFiles(root string) ([]string, error) {
	files := make([]string, 0)

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil //nolint:nilerr // skip inaccessible
		}

		if info.IsDir() {
			if path != root && e.ignored(root, path, info.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		if info.Mode()&os.ModeSymlink != 0 {
			if !e.cfg.FollowSymlinks {
				return nil
			}
			resolved, err := os.Stat(path)
			if err != nil || !resolved.Mode().IsRegular() {
				return nil
			}
			info = resolved
		}

		if e.ignored(root, path, info.Name()) {
			return nil
		}
		if e.cfg.MaxFileSizeBytes > 0 && info.Size() > e.cfg.MaxFileSizeBytes {
			return nil
		}
		if isBinaryFile(path) {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// ignored matches the configured ignore patterns against the entry's
// relative path and its base name.
func (e *Engine) ignored(root, path, name string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = name
	}
	rel = filepath.ToSlash(rel)

	for _, pattern := range e.cfg.IgnorePatterns {
		if m, _ := filepath.Match(pattern, rel); m {
			return true
		}
		if m, _ := filepath.Match(pattern, name); m {
			return true
		}
	}
	return false
}

// binaryExts are extensions skipped without opening the file.
var binaryExts = map[string]struct{}{
	".png": {}, ".jpg": {}, ".jpeg": {}, ".gif": {}, ".ico": {}, ".webp": {},
	".mp3": {}, ".mp4": {}, ".avi": {}, ".mov": {},
	".zip": {}, ".tar": {}, ".gz": {}, ".bz2": {}, ".xz": {}, ".rar": {}, ".7z": {},
	".exe": {}, ".dll": {}, ".so": {}, ".dylib": {}, ".wasm": {},
	".pyc": {}, ".class": {}, ".o": {}, ".a": {}, ".jar": {},
	".woff": {}, ".woff2": {}, ".ttf": {}, ".eot": {},
	".pdf": {}, ".doc": {}, ".docx": {}, ".db": {}, ".sqlite": {},
}

// isBinaryFile reports whether path should be skipped as binary, either
// by extension or by a NUL byte in the first 512 bytes.
func isBinaryFile(path string) bool {
	if _, ok := binaryExts[strings.ToLower(filepath.Ext(path))]; ok {
		return true
	}

	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	head := make([]byte, 512)
	n, _ := f.Read(head)
	return bytes.IndexByte(head[:n], 0) >= 0
}
