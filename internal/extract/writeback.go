package extract

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"

	"mediacatalog/internal/catalogerr"
)

// WriteMetadata writes a rating back into path's own tags, for MP3 and
// FLAC only (spec §4.5 "Tag write-back", §9 "MP3/FLAC-only
// writeback"). Other containers have no safe round-trip via this
// extractor and must return an error rather than silently no-op.
//
// Procedure, per spec §4.5:
//  1. the target rating is written exactly as given (ratingOutOf100,
//     the catalog's 0..100 scale); no rescaling to another native
//     scale is done.
//  2. no-op if the stored rating already equals the target.
//  3. copy the file to a tmp path preserving its extension.
//  4. rewrite only the rating entry in place.
//  5. on any failure after truncation, restore from the tmp copy.
func WriteMetadata(path string, ratingOutOf100 int) error {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".mp3":
		return writeMP3Rating(path, ratingOutOf100)
	case ".flac":
		return writeFLACRating(path, ratingOutOf100)
	default:
		return catalogerr.User("write_metadata", fmt.Errorf("write-back unsupported for %q (mp3/flac only)", ext))
	}
}

// backupCopy copies path to a sibling tmp file preserving its
// extension (spec step 3), returning the tmp path so the caller can
// restore from it on failure (spec step 5).
func backupCopy(path string) (tmpPath string, err error) {
	ext := filepath.Ext(path)
	tmp, err := os.CreateTemp(filepath.Dir(path), "catalog-writeback-*"+ext)
	if err != nil {
		return "", catalogerr.IO("write_metadata: create tmp", err)
	}
	defer tmp.Close()

	src, err := os.Open(path)
	if err != nil {
		os.Remove(tmp.Name())
		return "", catalogerr.IO("write_metadata: open source", err)
	}
	defer src.Close()

	if _, err := io.Copy(tmp, src); err != nil {
		os.Remove(tmp.Name())
		return "", catalogerr.IO("write_metadata: copy to tmp", err)
	}
	return tmp.Name(), nil
}

func restoreFromBackup(path, tmpPath string) error {
	if tmpPath == "" {
		return nil
	}
	defer os.Remove(tmpPath)
	if err := os.Rename(tmpPath, path); err != nil {
		return catalogerr.IO("write_metadata: restore from backup", err)
	}
	return nil
}

// ratingComment is the Vorbis-comment / TXXX key this catalog writes
// its rating under; readers look for the same key when deciding
// whether a no-op applies.
const ratingComment = "RATING"

func writeMP3Rating(path string, rating int) error {
	tg, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return catalogerr.IO("write_metadata: open mp3", err)
	}
	defer tg.Close()

	target := strconv.Itoa(rating)
	for _, udt := range tg.GetUserDefinedTextFrames() {
		if udt.Description == ratingComment && udt.Value == target {
			return nil // step 2: already at the target rating, no-op.
		}
	}

	tmpPath, err := backupCopy(path)
	if err != nil {
		return err
	}

	tg.AddUserDefinedTextFrame(id3v2.UserDefinedTextFrame{
		Encoding:    tg.DefaultEncoding(),
		Description: ratingComment,
		Value:       target,
	})
	if err := tg.Save(); err != nil {
		if restoreErr := restoreFromBackup(path, tmpPath); restoreErr != nil {
			return restoreErr
		}
		return catalogerr.IO("write_metadata: save mp3", err)
	}
	os.Remove(tmpPath)
	return nil
}

func writeFLACRating(path string, rating int) error {
	f, err := flac.ParseFile(path)
	if err != nil {
		return catalogerr.IO("write_metadata: parse flac", err)
	}

	var cmtIdx = -1
	var cmt *flacvorbis.MetaDataBlockVorbisComment
	for i, m := range f.Meta {
		if m.Type == flac.VorbisComment {
			cmtIdx = i
			cmt, err = flacvorbis.ParseFromMetaDataBlock(*m)
			if err != nil {
				return catalogerr.IO("write_metadata: parse vorbis comment", err)
			}
			break
		}
	}
	if cmt == nil {
		cmt = flacvorbis.New()
	}

	for _, existing := range cmt.Comments {
		if strings.HasPrefix(strings.ToUpper(existing), ratingComment+"=") {
			if existing == ratingComment+"="+strconv.Itoa(rating) {
				return nil // step 2: already at the target rating, no-op.
			}
			break
		}
	}

	tmpPath, err := backupCopy(path)
	if err != nil {
		return err
	}

	kept := cmt.Comments[:0]
	for _, existing := range cmt.Comments {
		if !strings.HasPrefix(strings.ToUpper(existing), ratingComment+"=") {
			kept = append(kept, existing)
		}
	}
	cmt.Comments = kept
	_ = cmt.Add(ratingComment, strconv.Itoa(rating))
	block := cmt.Marshal()
	if cmtIdx >= 0 {
		f.Meta[cmtIdx] = &block
	} else {
		f.Meta = append(f.Meta, &block)
	}

	if err := f.Save(path); err != nil {
		if restoreErr := restoreFromBackup(path, tmpPath); restoreErr != nil {
			return restoreErr
		}
		return catalogerr.IO("write_metadata: save flac", err)
	}
	os.Remove(tmpPath)
	return nil
}
