// SPDX-License-Identifier: MIT

package vast

import (
	"encoding/xml"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleVAST = `<?xml version="1.0" encoding="UTF-8"?>
<VAST version="4.0">
  <Ad id="AD1">
    <InLine>
      <AdSystem version="1.0">Test Ad Server</AdSystem>
      <AdTitle>Ad One</AdTitle>
      <Impression id="imp1">http://track.example.com/imp</Impression>
      <Creatives>
        <Creative id="c1">
          <UniversalAdId idRegistry="test-registry">AD-1_rev2</UniversalAdId>
          <Linear>
            <Duration>00:00:15</Duration>
            <MediaFiles>
              <MediaFile delivery="progressive" type="video/mp4" bitrate="1000" width="640" height="360">http://src/low.mp4</MediaFile>
              <MediaFile delivery="progressive" type="video/mp4" bitrate="2000" width="1280" height="720">http://src/a.mp4</MediaFile>
            </MediaFiles>
          </Linear>
        </Creative>
      </Creatives>
    </InLine>
  </Ad>
</VAST>`

const sampleVMAP = `<?xml version="1.0" encoding="UTF-8"?>
<vmap:VMAP xmlns:vmap="http://www.iab.net/videosuite/vmap" version="1.0">
  <vmap:AdBreak timeOffset="start" breakType="linear" breakId="preroll">
    <vmap:AdSource id="src1" allowMultipleAds="true">
      <vmap:VASTAdData>
        <VAST version="4.0">
          <Ad id="AD1">
            <InLine>
              <AdSystem>Test Ad Server</AdSystem>
              <Creatives>
                <Creative id="c1">
                  <UniversalAdId idRegistry="test-registry">AD-1_rev2</UniversalAdId>
                  <Linear>
                    <MediaFiles>
                      <MediaFile bitrate="2000" width="1280" height="720">http://src/a.mp4</MediaFile>
                    </MediaFiles>
                  </Linear>
                </Creative>
              </Creatives>
            </InLine>
          </Ad>
        </VAST>
      </vmap:VASTAdData>
    </vmap:AdSource>
  </vmap:AdBreak>
</vmap:VMAP>`

// ignoreXMLNames drops decoder-captured element names so documents parsed
// from differently namespaced sources compare structurally.
var ignoreXMLNames = cmpopts.IgnoreTypes(xml.Name{})

func TestParseVAST(t *testing.T) {
	doc, err := ParseVAST([]byte(sampleVAST))
	require.NoError(t, err)

	require.Len(t, doc.Ad, 1)
	ad := doc.Ad[0]
	assert.Equal(t, "AD1", ad.ID)
	require.NotNil(t, ad.InLine)
	assert.Equal(t, "Test Ad Server", ad.InLine.AdSystem.Name)
	require.Len(t, ad.InLine.Creatives.Creative, 1)
	assert.Equal(t, "AD-1_rev2", ad.InLine.Creatives.Creative[0].UniversalAdId.ID)
	require.NotNil(t, ad.InLine.Creatives.Creative[0].Linear)
	assert.Len(t, ad.InLine.Creatives.Creative[0].Linear.MediaFiles.MediaFile, 2)
}

func TestParseVMAP_PrefixedElements(t *testing.T) {
	doc, err := ParseVMAP([]byte(sampleVMAP))
	require.NoError(t, err)

	require.Len(t, doc.AdBreak, 1)
	br := doc.AdBreak[0]
	assert.Equal(t, "start", br.TimeOffset)
	assert.Equal(t, "preroll", br.BreakID)
	require.NotNil(t, br.AdSource)
	require.NotNil(t, br.AdSource.VASTAdData)
	require.NotNil(t, br.AdSource.VASTAdData.VAST)

	ads := doc.Ads()
	require.Len(t, ads, 1)
	assert.Equal(t, "AD1", ads[0].ID)
}

func TestRoundTrip_NoRewriteIsStructuralNoOp(t *testing.T) {
	for name, raw := range map[string]string{"vast": sampleVAST, "vmap": sampleVMAP} {
		t.Run(name, func(t *testing.T) {
			first, err := Parse([]byte(raw))
			require.NoError(t, err)

			out, err := first.Marshal()
			require.NoError(t, err)

			second, err := Parse(out)
			require.NoError(t, err)

			if diff := cmp.Diff(first, second, ignoreXMLNames); diff != "" {
				t.Errorf("document changed across a no-op rewrite (-first +second):\n%s", diff)
			}
		})
	}
}

func TestDetect(t *testing.T) {
	format, err := Detect([]byte(sampleVAST))
	require.NoError(t, err)
	assert.Equal(t, FormatVAST, format)

	format, err = Detect([]byte(sampleVMAP))
	require.NoError(t, err)
	assert.Equal(t, FormatVMAP, format)

	_, err = Detect([]byte("<html></html>"))
	assert.Error(t, err)

	_, err = Detect([]byte("not xml at all"))
	assert.Error(t, err)
}

func TestParse_MalformedInput(t *testing.T) {
	_, err := ParseVAST([]byte("<VAST><Ad></VAST>"))
	assert.Error(t, err)

	_, err = ParseVMAP([]byte(""))
	assert.Error(t, err)
}

func TestEmptyDocument(t *testing.T) {
	out, err := EmptyDocument(FormatVMAP).Marshal()
	require.NoError(t, err)
	doc, err := ParseVMAP(out)
	require.NoError(t, err)
	assert.Empty(t, doc.AdBreak)

	out, err = EmptyDocument(FormatVAST).Marshal()
	require.NoError(t, err)
	vastDoc, err := ParseVAST(out)
	require.NoError(t, err)
	assert.Empty(t, vastDoc.Ad)
}

func TestVMAP_AdsSkipsTagURISources(t *testing.T) {
	raw := `<vmap:VMAP xmlns:vmap="http://www.iab.net/videosuite/vmap" version="1.0">
  <vmap:AdBreak timeOffset="start" breakType="linear">
    <vmap:AdSource id="remote">
      <vmap:AdTagURI>http://ads.example.com/tag</vmap:AdTagURI>
    </vmap:AdSource>
  </vmap:AdBreak>
</vmap:VMAP>`

	doc, err := ParseVMAP([]byte(raw))
	require.NoError(t, err)
	assert.Empty(t, doc.Ads())
}
