package database

import (
	"strings"

	"github.com/mattn/go-sqlite3"
)

// registerCatalogFunctions installs the catalog's scalar SQL functions
// on every new connection. These mirror the C extension functions the
// original daap_* schema registered via sqlite3_create_function,
// reimplemented in Go since go-sqlite3 exposes RegisterFunc per
// connection rather than as a loadable extension.
func registerCatalogFunctions(conn *sqlite3.SQLiteConn) error {
	if err := conn.RegisterFunc("daap_songalbumid", sqlSongAlbumID, true); err != nil {
		return err
	}
	if err := conn.RegisterFunc("daap_songartistid", sqlSongArtistID, true); err != nil {
		return err
	}
	if err := conn.RegisterFunc("daap_no_zero", sqlNoZero, true); err != nil {
		return err
	}
	return nil
}

// sqlSongAlbumID computes the stable 63-bit album identifier used by
// the groups table: two_str_hash(album_artist, album) + data_kind.
func sqlSongAlbumID(albumArtist, album string, dataKind int64) int64 {
	return TwoStrHash(albumArtist, album) + dataKind
}

// sqlSongArtistID computes the stable 63-bit artist identifier:
// two_str_hash(album_artist, "").
func sqlSongArtistID(albumArtist string) int64 {
	return TwoStrHash(albumArtist, "")
}

// sqlNoZero returns newval unless it is zero, in which case the
// previous value is kept. UPDATE statements use this to avoid
// clobbering play counters with a freshly-rescanned zero.
func sqlNoZero(newval, oldval int64) int64 {
	if newval != 0 {
		return newval
	}
	return oldval
}

// TwoStrHash combines two case-folded strings, joined the same way the
// original catalog joined them ("a==b"), and hashes them with a 64-bit
// Murmur2 variant masked to 63 bits so the result always fits a
// non-negative SQLite INTEGER.
func TwoStrHash(a, b string) int64 {
	s := strings.ToLower(a) + "==" + strings.ToLower(b)
	h := murmurHash64A([]byte(s), 0xdeadbeef)
	return int64(h &^ (uint64(1) << 63))
}

// murmurHash64A is the 64-bit Murmur2 variant (the same algorithm the
// original catalog used for songalbumid/songartistid), operating on
// 8-byte blocks with a trailing partial-block mix.
func murmurHash64A(data []byte, seed uint64) uint64 {
	const m = uint64(0xc6a4a7935bd1e995)
	const r = 47

	h := seed ^ (uint64(len(data)) * m)

	n := len(data) / 8
	for i := 0; i < n; i++ {
		k := le64(data[i*8:])
		k *= m
		k ^= k >> r
		k *= m

		h ^= k
		h *= m
	}

	tail := data[n*8:]
	if len(tail) > 0 {
		var k uint64
		for i := len(tail) - 1; i >= 0; i-- {
			k = (k << 8) | uint64(tail[i])
		}
		h ^= k
		h *= m
	}

	h ^= h >> r
	h *= m
	h ^= h >> r

	return h
}

func le64(b []byte) uint64 {
	var v uint64
	for i := 0; i < 8 && i < len(b); i++ {
		v |= uint64(b[i]) << (8 * uint(i))
	}
	return v
}
