package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	stagingDir = ".staging"
	reportsDir = "reports"

	// URLPrefix is the route the upload root is served under.
	URLPrefix = "/storage"
)

// LocalStore keeps files on the local disk below root.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) (*LocalStore, error) {
	for _, dir := range []string{stagingDir, reportsDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload directory: %w", err)
		}
	}
	return &LocalStore{root: root, baseURL: strings.TrimRight(baseURL, "/")}, nil
}

// Root returns the directory served under URLPrefix.
func (s *LocalStore) Root() string {
	return s.root
}

func (s *LocalStore) Stage(ctx context.Context, ext string, r io.Reader) (Staged, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := uuid.NewString() + sanitizeExt(ext)
	stagedPath := filepath.Join(s.root, stagingDir, name)

	out, err := os.OpenFile(stagedPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to create staged file: %w", err)
	}

	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		os.Remove(stagedPath)
		return nil, fmt.Errorf("failed to write staged file: %w", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(stagedPath)
		return nil, fmt.Errorf("failed to close staged file: %w", err)
	}

	return &localStaged{
		stagedPath: stagedPath,
		finalPath:  filepath.Join(s.root, reportsDir, name),
		ref:        URLPrefix + "/" + reportsDir + "/" + name,
	}, nil
}

func (s *LocalStore) URL(ref string) string {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return ref
	}
	if !strings.HasPrefix(ref, "/") {
		ref = "/" + ref
	}
	return s.baseURL + ref
}

// Sweep deletes staged files last modified before now-olderThan. Such files
// belong to submissions that crashed between staging and release. With
// dryRun set nothing is removed. The names of matching files are returned.
func (s *LocalStore) Sweep(ctx context.Context, olderThan time.Duration, dryRun bool) ([]string, error) {
	dir := filepath.Join(s.root, stagingDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read staging directory: %w", err)
	}

	cutoff := time.Now().Add(-olderThan)
	var swept []string
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return swept, err
		}
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			// Removed concurrently by a Release.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return swept, err
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if !dryRun {
			if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
				log.Printf("[Upload] Failed to remove staged file %s: %v", entry.Name(), err)
				continue
			}
		}
		swept = append(swept, entry.Name())
	}
	return swept, nil
}

type localStaged struct {
	stagedPath string
	finalPath  string
	ref        string
}

func (f *localStaged) Reference() string {
	return f.ref
}

func (f *localStaged) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := os.Rename(f.stagedPath, f.finalPath); err != nil {
		return fmt.Errorf("failed to publish staged file: %w", err)
	}
	return nil
}

func (f *localStaged) Release(ctx context.Context) error {
	var errs []error
	for _, p := range []string{f.stagedPath, f.finalPath} {
		if err := os.Remove(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// sanitizeExt keeps a short lowercase extension made of letters and digits.
func sanitizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	if len(ext) > 8 {
		ext = ext[:8]
	}
	for _, r := range ext {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	if ext == "" {
		return ""
	}
	return "." + ext
}
