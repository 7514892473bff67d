package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"

	"github.com/ppiankov/riskform/internal/host"
)

const fileFields = "nextPageToken, files(id, name, mimeType)"

// DriveStore implements host.DocumentStore on Google Drive
type DriveStore struct {
	client *Client
}

// Folder returns folder metadata, failing if the id is not a folder
func (s *DriveStore) Folder(ctx context.Context, id string) (host.Folder, error) {
	if err := s.client.wait(ctx, "drive"); err != nil {
		return host.Folder{}, err
	}

	f, err := s.client.drive.Files.Get(id).
		Fields("id, name, mimeType").
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return host.Folder{}, fmt.Errorf("get folder %s: %w", id, mapError(err))
	}
	if f.MimeType != mimeFolder {
		return host.Folder{}, fmt.Errorf("%s is %s, not a folder", id, f.MimeType)
	}

	return host.Folder{ID: f.Id, Name: f.Name}, nil
}

// FindFolder returns the first child folder with the exact name
func (s *DriveStore) FindFolder(ctx context.Context, parentID, name string) (host.Folder, error) {
	q := fmt.Sprintf("'%s' in parents and name = '%s' and mimeType = '%s' and trashed = false",
		escapeQuery(parentID), escapeQuery(name), mimeFolder)

	files, err := s.list(ctx, q)
	if err != nil {
		return host.Folder{}, err
	}
	if len(files) == 0 {
		return host.Folder{}, fmt.Errorf("folder %q: %w", name, host.ErrNotFound)
	}

	return host.Folder{ID: files[0].Id, Name: files[0].Name}, nil
}

// FindFile returns the first child file with the exact name
func (s *DriveStore) FindFile(ctx context.Context, parentID, name string) (host.File, error) {
	q := fmt.Sprintf("'%s' in parents and name = '%s' and mimeType != '%s' and trashed = false",
		escapeQuery(parentID), escapeQuery(name), mimeFolder)

	files, err := s.list(ctx, q)
	if err != nil {
		return host.File{}, err
	}
	if len(files) == 0 {
		return host.File{}, fmt.Errorf("file %q: %w", name, host.ErrNotFound)
	}

	return toFile(files[0]), nil
}

// ListFiles lists the non-folder children of a folder
func (s *DriveStore) ListFiles(ctx context.Context, folderID string) ([]host.File, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType != '%s' and trashed = false",
		escapeQuery(folderID), mimeFolder)

	files, err := s.list(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]host.File, len(files))
	for i, f := range files {
		out[i] = toFile(f)
	}
	return out, nil
}

// ListFolders lists the child folders of a folder
func (s *DriveStore) ListFolders(ctx context.Context, folderID string) ([]host.Folder, error) {
	q := fmt.Sprintf("'%s' in parents and mimeType = '%s' and trashed = false",
		escapeQuery(folderID), mimeFolder)

	files, err := s.list(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]host.Folder, len(files))
	for i, f := range files {
		out[i] = host.Folder{ID: f.Id, Name: f.Name}
	}
	return out, nil
}

// ReadFile downloads a file's content
func (s *DriveStore) ReadFile(ctx context.Context, fileID string) ([]byte, error) {
	if err := s.client.wait(ctx, "drive"); err != nil {
		return nil, err
	}

	resp, err := s.client.drive.Files.Get(fileID).SupportsAllDrives(true).Context(ctx).Download()
	if err != nil {
		return nil, fmt.Errorf("download %s: %w", fileID, mapError(err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", fileID, err)
	}
	return data, nil
}

// ShareByLink grants read access to anyone with the link
func (s *DriveStore) ShareByLink(ctx context.Context, fileID string) error {
	if err := s.client.wait(ctx, "drive"); err != nil {
		return err
	}

	perm := &drive.Permission{Type: "anyone", Role: "reader"}
	_, err := s.client.drive.Permissions.Create(fileID, perm).
		SupportsAllDrives(true).
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("share %s: %w", fileID, mapError(err))
	}

	s.client.logger.Debug("Shared file by link", zap.String("file_id", fileID))
	return nil
}

// PublicURI returns the direct-view URL of a shared file
func (s *DriveStore) PublicURI(fileID string) string {
	return "https://drive.google.com/uc?export=view&id=" + fileID
}

// list runs a files.list query across all result pages
func (s *DriveStore) list(ctx context.Context, q string) ([]*drive.File, error) {
	if err := s.client.wait(ctx, "drive"); err != nil {
		return nil, err
	}

	var files []*drive.File
	err := s.client.drive.Files.List().
		Q(q).
		Fields(fileFields).
		OrderBy("name").
		SupportsAllDrives(true).
		IncludeItemsFromAllDrives(true).
		Pages(ctx, func(page *drive.FileList) error {
			files = append(files, page.Files...)
			return nil
		})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", mapError(err))
	}

	return files, nil
}

func toFile(f *drive.File) host.File {
	return host.File{ID: f.Id, Name: f.Name, MimeType: f.MimeType}
}

// escapeQuery escapes a value for a Drive query string literal
func escapeQuery(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `'`, `\'`)
}

// mapError converts API 404s to host.ErrNotFound
func mapError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
		return fmt.Errorf("%s: %w", apiErr.Message, host.ErrNotFound)
	}
	return err
}
