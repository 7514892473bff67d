// Package local implements the host interfaces on the local machine: a
// directory tree stands in for cloud storage, SQLite stores forms and their
// submissions, and spreadsheets are written as CSV files.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/ppiankov/riskform/internal/host"
)

// DirStore implements host.DocumentStore over directories. Folder and file
// ids are filesystem paths.
type DirStore struct{}

// NewDirStore creates a directory-backed document store
func NewDirStore() *DirStore {
	return &DirStore{}
}

// Folder returns the directory at path id
func (s *DirStore) Folder(ctx context.Context, id string) (host.Folder, error) {
	info, err := os.Stat(id)
	if err != nil {
		return host.Folder{}, fmt.Errorf("stat folder: %w", mapError(err))
	}
	if !info.IsDir() {
		return host.Folder{}, fmt.Errorf("%s is not a directory", id)
	}
	return host.Folder{ID: id, Name: info.Name()}, nil
}

// FindFolder returns the child directory with the exact name
func (s *DirStore) FindFolder(ctx context.Context, parentID, name string) (host.Folder, error) {
	entries, err := s.entries(parentID)
	if err != nil {
		return host.Folder{}, err
	}
	for _, e := range entries {
		if e.IsDir() && e.Name() == name {
			return host.Folder{ID: filepath.Join(parentID, name), Name: name}, nil
		}
	}
	return host.Folder{}, fmt.Errorf("folder %q: %w", name, host.ErrNotFound)
}

// FindFile returns the child file with the exact name
func (s *DirStore) FindFile(ctx context.Context, parentID, name string) (host.File, error) {
	entries, err := s.entries(parentID)
	if err != nil {
		return host.File{}, err
	}
	for _, e := range entries {
		if !e.IsDir() && e.Name() == name {
			return toFile(parentID, e.Name()), nil
		}
	}
	return host.File{}, fmt.Errorf("file %q: %w", name, host.ErrNotFound)
}

// ListFiles lists regular files in a directory, sorted by name
func (s *DirStore) ListFiles(ctx context.Context, folderID string) ([]host.File, error) {
	entries, err := s.entries(folderID)
	if err != nil {
		return nil, err
	}

	var files []host.File
	for _, e := range entries {
		if !e.IsDir() {
			files = append(files, toFile(folderID, e.Name()))
		}
	}
	return files, nil
}

// ListFolders lists sub-directories, sorted by name
func (s *DirStore) ListFolders(ctx context.Context, folderID string) ([]host.Folder, error) {
	entries, err := s.entries(folderID)
	if err != nil {
		return nil, err
	}

	var folders []host.Folder
	for _, e := range entries {
		if e.IsDir() {
			folders = append(folders, host.Folder{ID: filepath.Join(folderID, e.Name()), Name: e.Name()})
		}
	}
	return folders, nil
}

// ReadFile reads a file's content
func (s *DirStore) ReadFile(ctx context.Context, fileID string) ([]byte, error) {
	data, err := os.ReadFile(fileID)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", mapError(err))
	}
	return data, nil
}

// ShareByLink only checks that the file exists; local files carry no ACLs
func (s *DirStore) ShareByLink(ctx context.Context, fileID string) error {
	if _, err := os.Stat(fileID); err != nil {
		return fmt.Errorf("share file: %w", mapError(err))
	}
	return nil
}

// PublicURI returns a file:// URL for the file
func (s *DirStore) PublicURI(fileID string) string {
	abs, err := filepath.Abs(fileID)
	if err != nil {
		abs = fileID
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String()
}

func (s *DirStore) entries(dir string) ([]os.DirEntry, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read dir: %w", mapError(err))
	}
	sort.Slice(entries, func(a, b int) bool { return entries[a].Name() < entries[b].Name() })
	return entries, nil
}

func toFile(dir, name string) host.File {
	return host.File{
		ID:       filepath.Join(dir, name),
		Name:     name,
		MimeType: mime.TypeByExtension(filepath.Ext(name)),
	}
}

func mapError(err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%v: %w", err, host.ErrNotFound)
	}
	return err
}
