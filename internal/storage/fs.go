package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"certbatch/internal/errs"
)

const templateExt = ".json"

// FS serves templates from one directory and writes archives to another.
// Template IDs are file names without the .json extension.
type FS struct {
	TemplateDir string
	ArchiveDir  string
}

var _ Store = (*FS)(nil)

// NewFS creates the archive directory if needed and validates the
// template directory exists.
func NewFS(templateDir, archiveDir string) (*FS, error) {
	if _, err := os.Stat(templateDir); err != nil {
		return nil, errs.Wrap(errs.CodeStorage, "template directory is not readable", err)
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return nil, errs.Wrap(errs.CodeStorage, "archive directory is not writable", err)
	}
	return &FS{TemplateDir: templateDir, ArchiveDir: archiveDir}, nil
}

func (s *FS) Template(_ context.Context, id string) ([]byte, error) {
	// IDs are bare names; anything path-like is treated as unknown rather
	// than resolved.
	if id == "" || id != filepath.Base(id) || strings.Contains(id, "..") {
		return nil, errs.Newf(errs.CodeTemplateNotFound, "no template named %q", id)
	}
	data, err := os.ReadFile(filepath.Join(s.TemplateDir, id+templateExt))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Newf(errs.CodeTemplateNotFound, "no template named %q", id)
		}
		return nil, errs.Wrap(errs.CodeStorage, "could not read template", err)
	}
	return data, nil
}

func (s *FS) List(_ context.Context) ([]TemplateInfo, error) {
	entries, err := os.ReadDir(s.TemplateDir)
	if err != nil {
		return nil, errs.Wrap(errs.CodeStorage, "could not list templates", err)
	}
	infos := make([]TemplateInfo, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), templateExt) {
			continue
		}
		var size int64
		if fi, err := e.Info(); err == nil {
			size = fi.Size()
		}
		infos = append(infos, TemplateInfo{
			ID:   strings.TrimSuffix(e.Name(), templateExt),
			Size: size,
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos, nil
}

func (s *FS) Put(_ context.Context, name string, data []byte) (string, error) {
	handle := filepath.Base(name)
	if err := os.WriteFile(filepath.Join(s.ArchiveDir, handle), data, 0o644); err != nil {
		return "", errs.Wrap(errs.CodeStorage, "could not store archive", err)
	}
	return handle, nil
}

func (s *FS) Fetch(_ context.Context, handle string) ([]byte, error) {
	if handle == "" || handle != filepath.Base(handle) {
		return nil, errs.Newf(errs.CodeStorage, "unknown archive %q", handle)
	}
	data, err := os.ReadFile(filepath.Join(s.ArchiveDir, handle))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errs.Newf(errs.CodeStorage, "unknown archive %q", handle)
		}
		return nil, errs.Wrap(errs.CodeStorage, "could not read archive", err)
	}
	return data, nil
}
