package catalog

import (
	"context"
	"database/sql"
	"fmt"

	"mediacatalog/internal/mapper"
	"mediacatalog/internal/query"
	"mediacatalog/models"
)

var plColumns = mapper.For(models.Playlist{})
var piColumns = mapper.For(models.PlaylistItem{})

// SavePlaylist inserts a new playlists row or updates the existing one
// by virtual_path (spec §3 Playlist lifecycle: "created by scanners
// ... or API").
func (s *Store) SavePlaylist(ctx context.Context, pl *models.Playlist) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("catalog: save playlist: begin: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRowContext(ctx, `SELECT id FROM playlists WHERE virtual_path = ?`, pl.VirtualPath).Scan(&existingID)
	switch {
	case err == sql.ErrNoRows:
		names, args := plColumns.InsertColumns(*pl)
		res, execErr := tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO playlists (%s) VALUES (%s)", csvJoin(names), placeholders(len(names))), args...)
		if execErr != nil {
			return 0, fmt.Errorf("catalog: save playlist: insert: %w", execErr)
		}
		pl.ID, err = res.LastInsertId()
		if err != nil {
			return 0, err
		}
	case err != nil:
		return 0, fmt.Errorf("catalog: save playlist: lookup: %w", err)
	default:
		pl.ID = existingID
		assignments, args := plColumns.UpdateAssignments(*pl)
		args = append(args, pl.ID)
		if _, execErr := tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE playlists SET %s WHERE id = ?", csvJoin(assignments)), args...); execErr != nil {
			return 0, fmt.Errorf("catalog: save playlist: update: %w", execErr)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("catalog: save playlist: commit: %w", err)
	}
	return pl.ID, nil
}

// GetPlaylistByPath fetches a playlists row by its unique virtual_path.
func (s *Store) GetPlaylistByPath(ctx context.Context, virtualPath string) (*models.Playlist, error) {
	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM playlists WHERE virtual_path = ?", csvJoin(plColumns.SelectColumns())), virtualPath)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	pl := &models.Playlist{}
	if err := plColumns.Decode(rows, pl); err != nil {
		return nil, err
	}
	return pl, rows.Err()
}

// PlaylistItemAdd appends filepath to a plain/folder/rss playlist,
// preserving append order via the row's own autoincrement id (spec
// §3 PlaylistItem).
func (s *Store) PlaylistItemAdd(ctx context.Context, playlistID int64, filepath string, dbTimestamp int64) (int64, error) {
	pi := models.PlaylistItem{PlaylistID: playlistID, FilePath: filepath, DBTimestamp: dbTimestamp}
	names, args := piColumns.InsertColumns(pi)
	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("INSERT INTO playlistitems (%s) VALUES (%s)", csvJoin(names), placeholders(len(names))), args...)
	if err != nil {
		return 0, fmt.Errorf("catalog: playlist item add: %w", err)
	}
	return res.LastInsertId()
}

// PlaylistRemove soft-disables a playlist and all of its items by
// virtual_path (spec §4.4 LibrarySource.playlist_remove).
func (s *Store) PlaylistRemove(ctx context.Context, virtualPath string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("catalog: playlist remove: begin: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, `SELECT id FROM playlists WHERE virtual_path = ?`, virtualPath).Scan(&id); err != nil {
		if err == sql.ErrNoRows {
			return nil
		}
		return fmt.Errorf("catalog: playlist remove: lookup: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE playlists SET disabled = 1 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("catalog: playlist remove: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE playlistitems SET disabled = 1 WHERE playlistid = ?`, id); err != nil {
		return fmt.Errorf("catalog: playlist remove: items: %w", err)
	}
	return tx.Commit()
}

// FetchPlaylistItems resolves a playlist's member files, dispatching
// on its type the way query.Build's buildPlaylistItems does (spec
// §4.3 PlaylistItems).
func (s *Store) FetchPlaylistItems(ctx context.Context, pl *models.Playlist, p query.Params) ([]models.MediaFile, int, error) {
	p.Kind = query.PlaylistItems
	p.ID = pl.ID
	p.PlaylistType = pl.Type
	p.PlaylistQuery = pl.Query
	p.PlaylistQueryOrder = pl.QueryOrder
	p.PlaylistQueryLimit = pl.QueryLimit

	built, err := query.Build(p)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.Count(ctx, built)
	if err != nil {
		return nil, 0, err
	}
	sel := built.ApplyPaging(p.IdxType, p.Limit, p.Offset, count)

	rows, err := s.db.QueryContext(ctx, sel)
	if err != nil {
		return nil, 0, fmt.Errorf("catalog: fetch playlist items: %w", err)
	}
	defer rows.Close()

	var out []models.MediaFile
	for rows.Next() {
		var mfi models.MediaFile
		if err := mfiColumns.Decode(rows, &mfi); err != nil {
			return nil, 0, err
		}
		out = append(out, mfi)
	}
	return out, count, rows.Err()
}
