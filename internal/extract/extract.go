// Package extract implements C5's container-decode step (spec §4.5):
// decoding per-format tag dictionaries into a MediaFile, ahead of the
// three-pass fixup in internal/fixup. Stream parameters are not decoded.
//
// Grounded on original_source/filescanner_ffmpeg.c's per-container
// key->field mapping (generalized here onto github.com/dhowden/tag's
// already-normalized Metadata interface rather than re-implementing
// ID3v2/Vorbis comment parsing by hand — the same decode library the
// dhowden-tag/arung-agamani-denpa-radio/mipimipi-muserv/Aunali321-korus
// manifests in the pack all import for this exact concern).
package extract

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"

	"mediacatalog/internal/catalogerr"
	"mediacatalog/models"
)

// icyProbeLimit caps how much of an HTTP stream is read before giving
// up on finding a tag block (spec §4.5: "the probe buffer is capped
// (approximately 64 KB)").
const icyProbeLimit = 64 * 1024

// FromFile decodes a local file's container metadata into a fresh
// MediaFile. The caller still owns path/directory_id/data_kind/
// media_kind/virtual_path/scan_kind and fixup.Run; FromFile only fills
// fname, file_size and tag-derived fields (spec §4.5 "Container
// decode"). It does not read stream parameters: sample rate, channels,
// bits per sample, duration and bitrate stay zero.
func FromFile(path string) (*models.MediaFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, catalogerr.Source("extract: open file", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, catalogerr.Source("extract: stat file", err)
	}

	mfi := &models.MediaFile{
		FName:    filepath.Base(path),
		FileSize: info.Size(),
	}

	meta, err := tag.ReadFrom(f)
	if err != nil {
		// Not every eligible file carries a parseable tag block (spec
		// §4.5 "Error semantics": extraction failure returns -1 and the
		// file is neither inserted nor updated) — but a file with no
		// recognizable container tags at all still gets its fname as
		// title downstream in fixup, so callers may choose to treat a
		// tag.ErrNoTagsFound-class failure as "proceed with bare stream
		// info" instead of a hard failure. FromFile itself always
		// surfaces the error; the ingestion source decides.
		return mfi, catalogerr.Source("extract: read tags", err)
	}

	applyMetadata(mfi, meta)
	return mfi, nil
}

// applyMetadata copies tag.Metadata's normalized fields onto mfi,
// mirroring the generic-then-per-container layering spec §4.5
// describes ("the generic keys are then applied for all formats") —
// dhowden/tag has already folded the per-container key maps (ID3v2.x,
// Vorbis comment, MP4 atoms) into this one interface, so there is no
// separate per-format map to apply here.
func applyMetadata(mfi *models.MediaFile, meta tag.Metadata) {
	mfi.Title = meta.Title()
	mfi.Album = meta.Album()
	mfi.Artist = meta.Artist()
	mfi.AlbumArtist = meta.AlbumArtist()
	mfi.Composer = meta.Composer()
	mfi.Genre = meta.Genre()
	mfi.Comment = meta.Comment()
	mfi.Lyrics = meta.Lyrics()
	mfi.Year = meta.Year()

	track, totalTracks := meta.Track()
	mfi.Track, mfi.TotalTracks = track, totalTracks
	disc, totalDiscs := meta.Disc()
	mfi.Disc, mfi.TotalDiscs = disc, totalDiscs

	if strings.EqualFold(string(meta.FileType()), "mp3") {
		mfi.CodecType = "mpeg"
	} else {
		mfi.CodecType = strings.ToLower(string(meta.FileType()))
	}

	if pic := meta.Picture(); pic != nil && len(pic.Data) > 0 {
		mfi.Artwork = models.ArtworkEmbedded
	} else {
		mfi.Artwork = models.ArtworkNone
	}
}

// ICYMetadata holds the handful of stream-title fields an Icecast/
// Shoutcast ICY metadata block carries (spec §4.5: "For HTTP streams
// ... ICY metadata is lifted into title, artist, album_artist, album,
// genre when present").
type ICYMetadata struct {
	Title       string
	Artist      string
	Album       string
	AlbumArtist string
	Genre       string
}

// ApplyICY overlays non-empty ICY fields onto mfi. ICY streams often
// only carry a combined "StreamTitle='Artist - Title'" field; callers
// that have already split that into icy.Artist/icy.Title pass them in
// split form here.
func ApplyICY(mfi *models.MediaFile, icy ICYMetadata) {
	if icy.Title != "" {
		mfi.Title = icy.Title
	}
	if icy.Artist != "" {
		mfi.Artist = icy.Artist
	}
	if icy.AlbumArtist != "" {
		mfi.AlbumArtist = icy.AlbumArtist
	}
	if icy.Album != "" {
		mfi.Album = icy.Album
	}
	if icy.Genre != "" {
		mfi.Genre = icy.Genre
	}
}

// ParseICYStreamTitle splits an ICY "StreamTitle='Artist - Title'"
// value into artist/title, the common convention most Icecast sources
// follow; if there is no " - " separator the whole value becomes the
// title.
func ParseICYStreamTitle(streamTitle string) (artist, title string) {
	if idx := strings.Index(streamTitle, " - "); idx >= 0 {
		return strings.TrimSpace(streamTitle[:idx]), strings.TrimSpace(streamTitle[idx+3:])
	}
	return "", strings.TrimSpace(streamTitle)
}

// ProbeICYHeaders reads response headers already split out by the
// caller's HTTP client (icy-name/icy-genre et al. are ordinary HTTP
// headers, not part of the body) and returns the subset this package
// understands. ProbeICYBody is the body-embedded-metadata counterpart
// for servers that interleave "icy-metaint"-delimited blocks instead.
func ProbeICYHeaders(icyName, icyGenre string) ICYMetadata {
	return ICYMetadata{AlbumArtist: icyName, Genre: icyGenre}
}

// ProbeICYBody reads up to icyProbeLimit bytes from r looking for an
// embedded "StreamTitle='...'" metadata block at the given metaint
// byte interval (the Shoutcast/Icecast in-stream metadata protocol),
// and returns it parsed. Returns a zero ICYMetadata, nil if no block
// is found within the probe budget.
func ProbeICYBody(r io.Reader, metaint int) (ICYMetadata, error) {
	if metaint <= 0 {
		return ICYMetadata{}, nil
	}
	limited := io.LimitReader(r, icyProbeLimit)
	buf := make([]byte, metaint)
	if _, err := io.ReadFull(limited, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return ICYMetadata{}, nil
		}
		return ICYMetadata{}, catalogerr.Source("extract: probe icy body", err)
	}

	lenByte := make([]byte, 1)
	if _, err := io.ReadFull(limited, lenByte); err != nil {
		return ICYMetadata{}, nil
	}
	metaLen := int(lenByte[0]) * 16
	if metaLen == 0 {
		return ICYMetadata{}, nil
	}
	meta := make([]byte, metaLen)
	if _, err := io.ReadFull(limited, meta); err != nil {
		return ICYMetadata{}, nil
	}

	block := strings.Trim(string(meta), "\x00")
	const marker = "StreamTitle='"
	start := strings.Index(block, marker)
	if start < 0 {
		return ICYMetadata{}, nil
	}
	rest := block[start+len(marker):]
	end := strings.Index(rest, "';")
	if end < 0 {
		end = strings.Index(rest, "'")
	}
	if end < 0 {
		return ICYMetadata{}, nil
	}
	artist, title := ParseICYStreamTitle(rest[:end])
	return ICYMetadata{Artist: artist, Title: title}, nil
}

// EstimateBitrate derives a bitrate in kbps from duration and file
// size when the container did not report one directly (spec §4.5:
// "bitrate estimated from duration+file size if absent").
func EstimateBitrate(songLengthMs int64, fileSize int64) int {
	if songLengthMs <= 0 {
		return 0
	}
	seconds := float64(songLengthMs) / 1000
	bits := float64(fileSize) * 8
	return int(bits / seconds / 1000)
}
