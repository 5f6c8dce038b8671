// SPDX-License-Identifier: MIT

// Package vast implements the ad protocol adapter: a typed document model
// for the VAST and VMAP wire formats, creative identity extraction,
// best-rendition selection and media reference rewriting.
//
// Struct tags use local element names so documents arrive parseable
// regardless of namespace prefixes; repeated elements are slices, which
// keeps downstream logic independent of source cardinality.
package vast

import (
	"encoding/xml"
	"strconv"
)

// HLSMimeType is the media type written for rewritten manifest references.
const HLSMimeType = "application/x-mpegURL"

// VAST is the root of a VAST response document.
type VAST struct {
	XMLName xml.Name `xml:"VAST"`
	Version string   `xml:"version,attr,omitempty"`
	Ad      []Ad     `xml:"Ad"`
}

// Ad is a single advertisement inside a VAST document.
type Ad struct {
	ID       string  `xml:"id,attr,omitempty"`
	Sequence string  `xml:"sequence,attr,omitempty"`
	InLine   *InLine `xml:"InLine"`
}

// InLine carries the creative payload of an ad.
type InLine struct {
	AdSystem   *AdSystem    `xml:"AdSystem"`
	AdTitle    string       `xml:"AdTitle,omitempty"`
	Impression []Impression `xml:"Impression"`
	Error      string       `xml:"Error,omitempty"`
	Creatives  Creatives    `xml:"Creatives"`
}

// AdSystem names the system that served the ad.
type AdSystem struct {
	Version string `xml:"version,attr,omitempty"`
	Name    string `xml:",chardata"`
}

// Impression is a tracking pixel URL.
type Impression struct {
	ID  string `xml:"id,attr,omitempty"`
	URL string `xml:",chardata"`
}

// Creatives wraps the repeated Creative elements.
type Creatives struct {
	Creative []Creative `xml:"Creative"`
}

// Creative is one creative variant of an ad.
type Creative struct {
	ID            string         `xml:"id,attr,omitempty"`
	AdID          string         `xml:"adId,attr,omitempty"`
	Sequence      string         `xml:"sequence,attr,omitempty"`
	UniversalAdId *UniversalAdId `xml:"UniversalAdId"`
	Linear        *Linear        `xml:"Linear"`
}

// UniversalAdId is the registry-scoped stable identifier of a creative.
type UniversalAdId struct {
	IDRegistry string `xml:"idRegistry,attr,omitempty"`
	ID         string `xml:",chardata"`
}

// Linear is the linear (in-stream video) presentation of a creative.
type Linear struct {
	Duration   string      `xml:"Duration,omitempty"`
	MediaFiles *MediaFiles `xml:"MediaFiles"`
}

// MediaFiles wraps the repeated MediaFile elements.
type MediaFiles struct {
	MediaFile []MediaFile `xml:"MediaFile"`
}

// MediaFile is one rendition of a creative's source media. Numeric
// attributes stay strings so untouched ads round-trip exactly as received.
type MediaFile struct {
	Delivery string `xml:"delivery,attr,omitempty"`
	Type     string `xml:"type,attr,omitempty"`
	Bitrate  string `xml:"bitrate,attr,omitempty"`
	Width    string `xml:"width,attr,omitempty"`
	Height   string `xml:"height,attr,omitempty"`
	Codec    string `xml:"codec,attr,omitempty"`
	URL      string `xml:",chardata"`
}

// BitrateValue returns the numeric bitrate attribute, or 0 when the
// attribute is absent or not a number.
func (m *MediaFile) BitrateValue() int {
	v, err := strconv.Atoi(m.Bitrate)
	if err != nil {
		return 0
	}
	return v
}

// Resolution returns the rendition dimensions as "WxH".
func (m *MediaFile) Resolution() string {
	return m.Width + "x" + m.Height
}

// VMAP is the root of a VMAP document wrapping one or more ad breaks.
type VMAP struct {
	XMLName xml.Name  `xml:"VMAP"`
	Version string    `xml:"version,attr,omitempty"`
	AdBreak []AdBreak `xml:"AdBreak"`
}

// AdBreak is one scheduled break inside a VMAP document.
type AdBreak struct {
	TimeOffset string    `xml:"timeOffset,attr,omitempty"`
	BreakType  string    `xml:"breakType,attr,omitempty"`
	BreakID    string    `xml:"breakId,attr,omitempty"`
	AdSource   *AdSource `xml:"AdSource"`
}

// AdSource supplies the ad content of a break, either inline VAST data or a
// remote tag URI.
type AdSource struct {
	ID               string      `xml:"id,attr,omitempty"`
	AllowMultipleAds string      `xml:"allowMultipleAds,attr,omitempty"`
	FollowRedirects  string      `xml:"followRedirects,attr,omitempty"`
	VASTAdData       *VASTAdData `xml:"VASTAdData"`
	AdTagURI         string      `xml:"AdTagURI,omitempty"`
}

// VASTAdData embeds a full VAST document inside an ad break.
type VASTAdData struct {
	VAST *VAST `xml:"VAST"`
}
