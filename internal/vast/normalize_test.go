// SPDX-License-Identifier: MIT

package vast

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vastproxy/ad-normalizer/internal/store"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	keys, err := NewKeyExtractor(KeyFieldUniversalAdID, "[^a-zA-Z0-9]")
	require.NoError(t, err)
	return NewNormalizer(keys)
}

func staticLookup(records map[string]store.TranscodeInfo) LookupFunc {
	return func(identity string) (store.TranscodeInfo, bool) {
		info, ok := records[identity]
		return info, ok
	}
}

func TestNormalize_RewritesCompletedCreative(t *testing.T) {
	doc, err := ParseVAST([]byte(sampleVAST))
	require.NoError(t, err)

	manifest := "https://assets.example.com/AD1rev2/AD1rev2.m3u8"
	found, missing := newTestNormalizer(t).Normalize(doc, staticLookup(map[string]store.TranscodeInfo{
		"AD1rev2": {Url: manifest, Status: store.StatusCompleted},
	}))

	require.Len(t, found, 1)
	assert.Equal(t, "AD1rev2", found[0].CreativeID)
	assert.Equal(t, manifest, found[0].MasterPlaylistURL)
	assert.Empty(t, missing)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), manifest)
	assert.Contains(t, string(out), HLSMimeType)
	assert.NotContains(t, string(out), "http://src/a.mp4",
		"rewritten document must not contain the original source media URL")
}

func TestNormalize_MissingCreativeLeftUntouched(t *testing.T) {
	doc, err := ParseVAST([]byte(sampleVAST))
	require.NoError(t, err)

	found, missing := newTestNormalizer(t).Normalize(doc, staticLookup(nil))

	assert.Empty(t, found)
	require.Len(t, missing, 1)
	assert.Equal(t, "AD1rev2", missing[0].CreativeID)
	assert.Equal(t, "http://src/a.mp4", missing[0].MasterPlaylistURL,
		"missing creative reports the best rendition source")

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), "http://src/a.mp4")
	assert.NotContains(t, string(out), HLSMimeType)
}

func TestNormalize_NonCompletedRecordIsMissing(t *testing.T) {
	for _, status := range []store.Status{store.StatusInProgress, store.StatusPackaging} {
		t.Run(string(status), func(t *testing.T) {
			doc, err := ParseVAST([]byte(sampleVAST))
			require.NoError(t, err)

			found, missing := newTestNormalizer(t).Normalize(doc, staticLookup(map[string]store.TranscodeInfo{
				"AD1rev2": {Status: status},
			}))

			assert.Empty(t, found)
			require.Len(t, missing, 1)

			out, err := doc.Marshal()
			require.NoError(t, err)
			assert.Contains(t, string(out), "http://src/a.mp4")
		})
	}
}

func TestNormalize_MissingReportedOncePerRequest(t *testing.T) {
	raw := `<VAST version="4.0">
  <Ad id="a">
    <InLine>
      <Creatives>
        <Creative>
          <UniversalAdId>AD1</UniversalAdId>
          <Linear><MediaFiles>
            <MediaFile bitrate="1000">http://src/a.mp4</MediaFile>
          </MediaFiles></Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
  <Ad id="b">
    <InLine>
      <Creatives>
        <Creative>
          <UniversalAdId>AD1</UniversalAdId>
          <Linear><MediaFiles>
            <MediaFile bitrate="1000">http://src/a.mp4</MediaFile>
          </MediaFiles></Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
</VAST>`
	doc, err := ParseVAST([]byte(raw))
	require.NoError(t, err)

	_, missing := newTestNormalizer(t).Normalize(doc, staticLookup(nil))
	require.Len(t, missing, 1, "same identity must appear in the missing set exactly once")
	assert.Equal(t, "AD1", missing[0].CreativeID)
}

func TestNormalize_RewritesEveryOccurrenceOfCompletedIdentity(t *testing.T) {
	raw := `<VAST version="4.0">
  <Ad id="a">
    <InLine>
      <Creatives>
        <Creative>
          <UniversalAdId>AD1</UniversalAdId>
          <Linear><MediaFiles>
            <MediaFile bitrate="1000">http://src/a.mp4</MediaFile>
          </MediaFiles></Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
  <Ad id="b">
    <InLine>
      <Creatives>
        <Creative>
          <UniversalAdId>AD1</UniversalAdId>
          <Linear><MediaFiles>
            <MediaFile bitrate="1000">http://src/a.mp4</MediaFile>
          </MediaFiles></Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
</VAST>`
	doc, err := ParseVAST([]byte(raw))
	require.NoError(t, err)

	manifest := "https://assets.example.com/AD1/AD1.m3u8"
	found, missing := newTestNormalizer(t).Normalize(doc, staticLookup(map[string]store.TranscodeInfo{
		"AD1": {Url: manifest, Status: store.StatusCompleted},
	}))

	require.Len(t, found, 1)
	assert.Empty(t, missing)

	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Equal(t, 0, strings.Count(string(out), "http://src/a.mp4"))
	assert.Equal(t, 2, strings.Count(string(out), manifest))
}

func TestNormalize_VMAPDocument(t *testing.T) {
	doc, err := ParseVMAP([]byte(sampleVMAP))
	require.NoError(t, err)

	manifest := "https://assets.example.com/AD1rev2/AD1rev2.m3u8"
	found, _ := newTestNormalizer(t).Normalize(doc, staticLookup(map[string]store.TranscodeInfo{
		"AD1rev2": {Url: manifest, Status: store.StatusCompleted},
	}))

	require.Len(t, found, 1)
	out, err := doc.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(out), manifest)
	assert.NotContains(t, string(out), "http://src/a.mp4")
}
