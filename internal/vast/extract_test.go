// SPDX-License-Identifier: MIT

package vast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adWithMediaFiles(files ...MediaFile) Ad {
	return Ad{
		ID: "AD1",
		InLine: &InLine{
			Creatives: Creatives{
				Creative: []Creative{
					{
						UniversalAdId: &UniversalAdId{IDRegistry: "test", ID: "AD-1_rev2"},
						Linear:        &Linear{MediaFiles: &MediaFiles{MediaFile: files}},
					},
				},
			},
		},
	}
}

func TestBestMediaFile_MaxBitrateWins(t *testing.T) {
	ad := adWithMediaFiles(
		MediaFile{Bitrate: "1000", Width: "640", Height: "360", URL: "http://src/low.mp4"},
		MediaFile{Bitrate: "2000", Width: "1280", Height: "720", URL: "http://src/high.mp4"},
		MediaFile{Bitrate: "1500", URL: "http://src/mid.mp4"},
	)

	best := BestMediaFile(&ad)
	require.NotNil(t, best)
	assert.Equal(t, "http://src/high.mp4", best.URL)
	assert.Equal(t, 2000, best.BitrateValue())
}

func TestBestMediaFile_FirstWinsOnTieOrMissing(t *testing.T) {
	tie := adWithMediaFiles(
		MediaFile{Bitrate: "1000", URL: "http://src/first.mp4"},
		MediaFile{Bitrate: "1000", URL: "http://src/second.mp4"},
	)
	best := BestMediaFile(&tie)
	require.NotNil(t, best)
	assert.Equal(t, "http://src/first.mp4", best.URL)

	missing := adWithMediaFiles(
		MediaFile{URL: "http://src/first.mp4"},
		MediaFile{URL: "http://src/second.mp4"},
	)
	best = BestMediaFile(&missing)
	require.NotNil(t, best)
	assert.Equal(t, "http://src/first.mp4", best.URL)

	garbage := adWithMediaFiles(
		MediaFile{Bitrate: "fast", URL: "http://src/first.mp4"},
		MediaFile{Bitrate: "1", URL: "http://src/second.mp4"},
	)
	best = BestMediaFile(&garbage)
	require.NotNil(t, best)
	assert.Equal(t, "http://src/second.mp4", best.URL, "unparsable bitrate counts as zero")
}

func TestBestMediaFile_NoMediaFiles(t *testing.T) {
	ad := Ad{ID: "AD1"}
	assert.Nil(t, BestMediaFile(&ad))

	empty := adWithMediaFiles()
	assert.Nil(t, BestMediaFile(&empty))
}

func TestKeyExtractor_UniversalAdID(t *testing.T) {
	keys, err := NewKeyExtractor(KeyFieldUniversalAdID, "[^a-zA-Z0-9]")
	require.NoError(t, err)

	ad := adWithMediaFiles(MediaFile{Bitrate: "1000", URL: "http://src/a.mp4"})
	assert.Equal(t, "AD1rev2", keys.Identity(&ad), "sanitizing pattern strips non-matching characters")

	same := adWithMediaFiles(MediaFile{Bitrate: "9000", URL: "http://elsewhere/b.mp4"})
	assert.Equal(t, keys.Identity(&ad), keys.Identity(&same), "identity is stable across requests")
}

func TestKeyExtractor_Resolution(t *testing.T) {
	keys, err := NewKeyExtractor(KeyFieldResolution, "")
	require.NoError(t, err)

	ad := adWithMediaFiles(
		MediaFile{Bitrate: "1000", Width: "640", Height: "360", URL: "http://src/low.mp4"},
		MediaFile{Bitrate: "2000", Width: "1280", Height: "720", URL: "http://src/high.mp4"},
	)
	assert.Equal(t, "1280x720", keys.Identity(&ad), "resolution comes from the best rendition")
}

func TestKeyExtractor_URL(t *testing.T) {
	keys, err := NewKeyExtractor(KeyFieldURL, "[^a-zA-Z0-9]")
	require.NoError(t, err)

	ad := adWithMediaFiles(MediaFile{Bitrate: "2000", URL: "http://example.com/video2.mp4"})
	assert.Equal(t, "httpexamplecomvideo2mp4", keys.Identity(&ad))
}

func TestKeyExtractor_NoUsableField(t *testing.T) {
	keys, err := NewKeyExtractor(KeyFieldUniversalAdID, "[^a-zA-Z0-9]")
	require.NoError(t, err)

	ad := Ad{ID: "AD1", InLine: &InLine{}}
	assert.Empty(t, keys.Identity(&ad))
}

func TestNewKeyExtractor_BadPattern(t *testing.T) {
	_, err := NewKeyExtractor(KeyFieldUniversalAdID, "[unclosed")
	assert.Error(t, err)
}
