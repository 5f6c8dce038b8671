// SPDX-License-Identifier: MIT

package vast

import (
	"fmt"
	"regexp"
)

// Key field variants. The default derives identity from the creative's
// universal ad id; the others derive it from the best rendition.
const (
	KeyFieldUniversalAdID = "universalAdId"
	KeyFieldResolution    = "resolution"
	KeyFieldURL           = "url"
)

// KeyExtractor derives the stable creative identity from an ad. The
// sanitizing pattern strips matching characters so the identity is safe as
// a cache key and an output folder name.
type KeyExtractor struct {
	field string
	re    *regexp.Regexp
}

// NewKeyExtractor compiles the sanitizing pattern for the configured field.
func NewKeyExtractor(field, pattern string) (*KeyExtractor, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid key regex %q: %w", pattern, err)
	}
	return &KeyExtractor{field: field, re: re}, nil
}

// Identity returns the creative identity for ad, or "" when the ad carries
// no usable source field. The result is stable across requests for the
// same ad.
func (k *KeyExtractor) Identity(ad *Ad) string {
	best := BestMediaFile(ad)
	switch k.field {
	case KeyFieldResolution:
		if best == nil {
			return ""
		}
		return best.Resolution()
	case KeyFieldURL:
		if best == nil {
			return ""
		}
		return k.re.ReplaceAllString(best.URL, "")
	default:
		uid := universalAdID(ad)
		if uid == "" {
			return ""
		}
		return k.re.ReplaceAllString(uid, "")
	}
}

// universalAdID returns the first creative's universal ad id value.
func universalAdID(ad *Ad) string {
	if ad.InLine == nil {
		return ""
	}
	for i := range ad.InLine.Creatives.Creative {
		if uid := ad.InLine.Creatives.Creative[i].UniversalAdId; uid != nil {
			return uid.ID
		}
	}
	return ""
}

// BestMediaFile selects the best rendition among the ad's media files: the
// highest numeric bitrate attribute wins, the first element wins on ties or
// missing attributes. Returns nil when the ad has no media files.
func BestMediaFile(ad *Ad) *MediaFile {
	if ad.InLine == nil {
		return nil
	}
	var best *MediaFile
	for ci := range ad.InLine.Creatives.Creative {
		linear := ad.InLine.Creatives.Creative[ci].Linear
		if linear == nil || linear.MediaFiles == nil {
			continue
		}
		for mi := range linear.MediaFiles.MediaFile {
			mf := &linear.MediaFiles.MediaFile[mi]
			if best == nil || mf.BitrateValue() > best.BitrateValue() {
				best = mf
			}
		}
	}
	return best
}
