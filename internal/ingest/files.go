package ingest

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"mediacatalog/config"
	"mediacatalog/internal/catalog"
	"mediacatalog/internal/catalogerr"
	"mediacatalog/internal/extract"
	"mediacatalog/models"
)

// FilesSource is the built-in "files" LibrarySource (spec §4.4): walks
// the configured directories, runs the C5 extractor over each eligible
// path, and saves the resulting MediaFile via the catalog store.
// Grounded on original_source's file-scanner walk loop, re-expressed
// as filepath.WalkDir. With FollowSymlinks set, symlink entries are
// extracted like regular files; symlinked directories are not descended
// into.
type FilesSource struct {
	cfg    config.LibraryConfig
	store  *catalog.Store
	logger *zap.Logger
	clock  func() int64
}

func NewFilesSource(cfg config.LibraryConfig, store *catalog.Store, logger *zap.Logger) *FilesSource {
	return &FilesSource{cfg: cfg, store: store, logger: logger, clock: func() int64 { return time.Now().Unix() }}
}

func (f *FilesSource) ScanKind() models.ScanKind { return models.ScanKindFiles }

func (f *FilesSource) Init(ctx context.Context) error   { return nil }
func (f *FilesSource) Deinit(ctx context.Context) error { return nil }

// InitScan walks every configured directory and saves every eligible
// file found, the same as FullRescan for a files source — there is no
// cheaper "first scan" shortcut once the directory tree must be
// walked regardless.
func (f *FilesSource) InitScan(ctx context.Context) error {
	return f.walkAndSave(ctx, f.clock())
}

// Rescan walks every configured directory and re-extracts and re-saves
// every eligible file, exactly like InitScan; no mtime comparison is
// made, so unchanged files are saved again through SaveMediaFile's
// insert-or-update-by-path logic.
func (f *FilesSource) Rescan(ctx context.Context) error {
	return f.walkAndSave(ctx, f.clock())
}

// MetaRescan re-extracts tags for files already in the catalog without
// discovering new ones, by iterating known files rather than walking
// the filesystem.
func (f *FilesSource) MetaRescan(ctx context.Context) error {
	ctx2 := ctx
	refTime := f.clock()
	paths, err := f.store.ListFilePaths(ctx2, models.ScanKindFiles)
	if err != nil {
		return fmt.Errorf("ingest: files meta-rescan: list: %w", err)
	}
	for _, path := range paths {
		if err := f.extractAndSave(ctx2, path, refTime); err != nil {
			f.logger.Warn("ingest: files meta-rescan: skip item", zap.String("path", path), zap.Error(err))
		}
	}
	return nil
}

// FullRescan forces a complete walk and then purges any row this
// source owns that was not touched during the walk (spec §4.4
// "Purge"), using the scan's start time as the purge reference.
func (f *FilesSource) FullRescan(ctx context.Context) error {
	refTime := f.clock()
	if err := f.walkAndSave(ctx, refTime); err != nil {
		return err
	}
	return f.store.PurgeCruftScoped(ctx, refTime, int(models.ScanKindFiles))
}

func (f *FilesSource) walkAndSave(ctx context.Context, refTime int64) error {
	for _, root := range f.cfg.Directories {
		if err := f.walkDir(ctx, root, refTime); err != nil {
			return fmt.Errorf("ingest: files: walk %s: %w", root, err)
		}
	}
	return nil
}

func (f *FilesSource) walkDir(ctx context.Context, root string, refTime int64) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			f.logger.Warn("ingest: files: walk entry error", zap.String("path", path), zap.Error(err))
			return nil // spec §7 Source error: skip the item, continue the scan.
		}
		if d.IsDir() {
			if f.pathIgnored(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() && !(d.Type()&fs.ModeSymlink != 0 && f.cfg.FollowSymlinks) {
			return nil
		}
		if f.pathIgnored(path) || f.extIgnored(path) {
			return nil
		}
		if err := f.extractAndSave(ctx, path, refTime); err != nil {
			f.logger.Warn("ingest: files: skip item", zap.String("path", path), zap.Error(err))
		}
		return nil
	})
}

func (f *FilesSource) pathIgnored(path string) bool {
	for _, pat := range f.cfg.FilepathIgnore {
		if matched, _ := filepath.Match(pat, path); matched {
			return true
		}
	}
	return false
}

func (f *FilesSource) extIgnored(path string) bool {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	for _, ig := range f.cfg.FiletypesIgnore {
		if strings.EqualFold(ig, ext) {
			return true
		}
	}
	return false
}

// extractAndSave runs the C5 extractor over path and saves the
// resulting MediaFile, filling in the source-owned fields the
// extractor does not know about (spec §4.5: "the caller still owns
// path/fname/directory_id/...").
func (f *FilesSource) extractAndSave(ctx context.Context, path string, refTime int64) error {
	info, err := os.Stat(path)
	if err != nil {
		return catalogerr.Source("ingest: files: stat", err)
	}

	mfi, err := extract.FromFile(path)
	if err != nil && mfi == nil {
		return err
	}
	if mfi == nil {
		mfi = &models.MediaFile{FName: filepath.Base(path)}
	}

	mfi.Path = path
	mfi.VirtualPath = "/file:" + path
	mfi.DataKind = models.DataKindFile
	if mfi.MediaKind == 0 {
		mfi.MediaKind = models.MediaKindMusic
	}
	mfi.TimeModified = info.ModTime().Unix()
	mfi.DBTimestamp = refTime
	mfi.ScanKind = models.ScanKindFiles
	if mfi.Bitrate == 0 {
		mfi.Bitrate = extract.EstimateBitrate(mfi.SongLength, mfi.FileSize)
	}

	_, err = f.store.SaveMediaFile(ctx, mfi)
	return err
}

// WriteMetadata implements TagWriter for the files source (spec §4.4
// write_metadata / §4.5 "Tag write-back"): delegates to C5's
// MP3/FLAC-only extract.WriteMetadata.
func (f *FilesSource) WriteMetadata(ctx context.Context, mfi *models.MediaFile) error {
	return extract.WriteMetadata(mfi.Path, mfi.Rating)
}

// RescanPath implements PathRescanner for a single changed path (e.g.
// from the watch/inotify layer), without a full directory walk.
func (f *FilesSource) RescanPath(ctx context.Context, path string) error {
	return f.extractAndSave(ctx, path, f.clock())
}

// ItemAdd implements ItemAdder for a single new path.
func (f *FilesSource) ItemAdd(ctx context.Context, path string) error {
	return f.extractAndSave(ctx, path, f.clock())
}
