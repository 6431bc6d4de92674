package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"mediacatalog/models"
)

func TestParseICYStreamTitle(t *testing.T) {
	artist, title := ParseICYStreamTitle("Daft Punk - One More Time")
	require.Equal(t, "Daft Punk", artist)
	require.Equal(t, "One More Time", title)

	artist, title = ParseICYStreamTitle("Just A Title")
	require.Equal(t, "", artist)
	require.Equal(t, "Just A Title", title)
}

func TestApplyICY_OnlyOverlaysNonEmpty(t *testing.T) {
	mfi := &models.MediaFile{Title: "Original", Genre: "Rock"}
	icy := ICYMetadata{Title: "New Title"}
	ApplyICY(mfi, icy)
	require.Equal(t, "New Title", mfi.Title)
	require.Equal(t, "Rock", mfi.Genre) // untouched: ICY carried no genre
}

func TestEstimateBitrate(t *testing.T) {
	// 3 minutes at ~2.9 MB should land near a typical 128kbps mp3.
	kbps := EstimateBitrate(180_000, 2_880_000)
	require.InDelta(t, 128, kbps, 5)

	require.Equal(t, 0, EstimateBitrate(0, 1000))
}

func TestProbeICYBody_FindsStreamTitle(t *testing.T) {
	const metaint = 8
	audio := strings.Repeat("x", metaint)
	block := "StreamTitle='Daft Punk - One More Time';StreamUrl='';"
	padded := block
	for len(padded)%16 != 0 {
		padded += "\x00"
	}
	lenByte := byte(len(padded) / 16)

	var buf strings.Builder
	buf.WriteString(audio)
	buf.WriteByte(lenByte)
	buf.WriteString(padded)

	icy, err := ProbeICYBody(strings.NewReader(buf.String()), metaint)
	require.NoError(t, err)
	require.Equal(t, "Daft Punk", icy.Artist)
	require.Equal(t, "One More Time", icy.Title)
}

func TestProbeICYBody_NoMetaint(t *testing.T) {
	icy, err := ProbeICYBody(strings.NewReader("whatever"), 0)
	require.NoError(t, err)
	require.Equal(t, ICYMetadata{}, icy)
}
