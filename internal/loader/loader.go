// Package loader reads the evaluation manifest and publishes item images
// from a storage folder.
package loader

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"go.uber.org/zap"

	"github.com/ppiankov/riskform/internal/host"
	"github.com/ppiankov/riskform/internal/model"
)

// imagePattern matches "<item id>.<extension>" image file names
var imagePattern = regexp.MustCompile(`(?i)^(\d+)\.(jpg|jpeg|png|gif|webp)$`)

// ImageItemID returns the item id encoded in an image file name
func ImageItemID(name string) (string, bool) {
	m := imagePattern.FindStringSubmatch(name)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Loader builds a Dataset from a storage folder
type Loader struct {
	store  host.DocumentStore
	cfg    model.StorageConfig
	logger *zap.Logger
}

// New creates a loader
func New(store host.DocumentStore, cfg model.StorageConfig, logger *zap.Logger) *Loader {
	return &Loader{store: store, cfg: cfg, logger: logger}
}

// Load reads the manifest and image references from folderID. It never
// fails: problems are logged and whatever was loaded so far is returned.
func (l *Loader) Load(ctx context.Context, folderID string) *model.Dataset {
	ds := model.NewDataset()

	if err := l.load(ctx, folderID, ds); err != nil {
		l.logger.Error("Loading evaluation data failed; check the folder id and access rights",
			zap.String("folder_id", folderID),
			zap.Error(err))
	}

	l.logger.Info("Evaluation data loaded",
		zap.Int("items", len(ds.Evaluations)),
		zap.Int("images", len(ds.Images)))

	return ds
}

func (l *Loader) load(ctx context.Context, folderID string, ds *model.Dataset) error {
	if folderID == "" {
		return errors.New("storage folder id is not configured")
	}

	folder, err := l.store.Folder(ctx, folderID)
	if err != nil {
		return fmt.Errorf("open folder: %w", err)
	}
	l.logger.Debug("Opened folder", zap.String("name", folder.Name))

	if err := l.loadManifest(ctx, folder.ID, ds); err != nil {
		return err
	}

	imagesID := folder.ID
	images, err := l.store.FindFolder(ctx, folder.ID, l.cfg.ImagesFolder)
	switch {
	case err == nil:
		imagesID = images.ID
	case errors.Is(err, host.ErrNotFound):
		l.logger.Warn("Images folder not found, scanning the main folder instead",
			zap.String("images_folder", l.cfg.ImagesFolder))
	default:
		return fmt.Errorf("find images folder: %w", err)
	}

	return l.loadImages(ctx, imagesID, ds)
}

func (l *Loader) loadManifest(ctx context.Context, folderID string, ds *model.Dataset) error {
	file, err := l.store.FindFile(ctx, folderID, l.cfg.ManifestName)
	if errors.Is(err, host.ErrNotFound) {
		l.logger.Warn("Manifest file not found", zap.String("manifest", l.cfg.ManifestName))
		return nil
	}
	if err != nil {
		return fmt.Errorf("find manifest: %w", err)
	}

	data, err := l.store.ReadFile(ctx, file.ID)
	if err != nil {
		return fmt.Errorf("read manifest: %w", err)
	}

	manifest, err := model.ParseManifest(data)
	if err != nil {
		return err
	}

	ds.Evaluations = manifest
	l.logger.Debug("Manifest loaded", zap.String("manifest", l.cfg.ManifestName))
	return nil
}

// loadImages shares every matching image and records its URI. Entries are
// added one at a time so a failure leaves the earlier ones in place.
func (l *Loader) loadImages(ctx context.Context, folderID string, ds *model.Dataset) error {
	files, err := l.store.ListFiles(ctx, folderID)
	if err != nil {
		return fmt.Errorf("list images: %w", err)
	}

	for _, f := range files {
		id, ok := ImageItemID(f.Name)
		if !ok {
			continue
		}
		if err := l.store.ShareByLink(ctx, f.ID); err != nil {
			return fmt.Errorf("share %s: %w", f.Name, err)
		}
		ds.Images[id] = l.store.PublicURI(f.ID)
	}

	return nil
}

// Listing is a read-only snapshot of a folder used to verify storage access
type Listing struct {
	Folder     host.Folder
	Files      []host.File
	SubFolders []SubFolder
}

// SubFolder is one child folder and its files
type SubFolder struct {
	Folder host.Folder
	Files  []host.File
}

// Inspect lists a folder, its sub-folders and their files. Nothing is modified.
func (l *Loader) Inspect(ctx context.Context, folderID string) (*Listing, error) {
	if folderID == "" {
		return nil, errors.New("storage folder id is not configured")
	}

	folder, err := l.store.Folder(ctx, folderID)
	if err != nil {
		return nil, fmt.Errorf("open folder: %w", err)
	}

	files, err := l.store.ListFiles(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	folders, err := l.store.ListFolders(ctx, folder.ID)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}

	listing := &Listing{Folder: folder, Files: files}
	for _, sub := range folders {
		subFiles, err := l.store.ListFiles(ctx, sub.ID)
		if err != nil {
			return nil, fmt.Errorf("list %s: %w", sub.Name, err)
		}
		listing.SubFolders = append(listing.SubFolders, SubFolder{Folder: sub, Files: subFiles})
	}

	return listing, nil
}
