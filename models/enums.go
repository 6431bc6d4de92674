// Package models defines the catalog's persisted entity types: the
// flat row structs that C2's column maps bind to and from, and the
// small enums spec.md §3 names for them.
package models

// DataKind distinguishes where a MediaFile's bytes come from.
type DataKind int

const (
	DataKindFile DataKind = iota
	DataKindHTTP
	DataKindSpotify
	DataKindPipe
)

// MediaKind classifies a MediaFile's content for presentation and
// browse grouping.
type MediaKind int

const (
	MediaKindMusic MediaKind = iota
	MediaKindMovie
	MediaKindPodcast
	MediaKindAudiobook
	MediaKindMusicVideo
	MediaKindTVShow
)

// ArtworkKind records whether artwork has been located for a file.
type ArtworkKind int

const (
	ArtworkUnknown ArtworkKind = iota
	ArtworkNone
	ArtworkEmbedded
)

// PlaylistType enumerates the playlist storage kinds.
type PlaylistType int

const (
	PlaylistTypeSpecial PlaylistType = iota
	PlaylistTypeFolder
	PlaylistTypeSmart
	PlaylistTypePlain
	PlaylistTypeRSS
)

// ScanKind identifies which library source owns a row, for purge and
// rescan scoping.
type ScanKind int

const (
	ScanKindUnknown ScanKind = iota
	ScanKindFiles
	ScanKindSpotify
	ScanKindRSS
	ScanKindITunes
)

// GroupType distinguishes album groups from artist groups.
type GroupType int

const (
	GroupTypeAlbum  GroupType = 1
	GroupTypeArtist GroupType = 2
)

// NonPersistentID is the sentinel queue.file_id used for queue items
// that have no backing catalog row (e.g. an ad-hoc stream).
const NonPersistentID int64 = 9999999

// DisabledCookieSentinel is the disabled-column value meaning
// "disabled by a non-cookie event" (spec §3 invariant 7). It is
// chosen to exceed any real 32-bit inotify cookie while keeping the
// sign bit clear.
const DisabledCookieSentinel int64 = 1 << 32
