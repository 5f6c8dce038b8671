// SPDX-License-Identifier: MIT

package vast

import (
	"github.com/vastproxy/ad-normalizer/internal/store"
)

// ManifestAsset pairs a creative identity with its media reference. For
// found creatives the URL is the playable manifest; for missing ones it is
// the original source media to transcode.
type ManifestAsset struct {
	CreativeID        string `json:"creativeId"`
	MasterPlaylistURL string `json:"masterPlaylistUrl"`
}

// LookupFunc resolves a creative identity to its cache record.
type LookupFunc func(identity string) (store.TranscodeInfo, bool)

// Normalizer rewrites ad documents against the status cache.
type Normalizer struct {
	keys *KeyExtractor
}

// NewNormalizer returns a Normalizer using the given identity extractor.
func NewNormalizer(keys *KeyExtractor) *Normalizer {
	return &Normalizer{keys: keys}
}

// Normalize partitions the document's creatives by cache state and rewrites
// the ready ones in place.
//
// Creatives with a COMPLETED record get their best rendition's reference
// replaced by the record URL and its media type set to the HLS manifest
// type. Every other creative is left untouched and reported as missing,
// exactly once per identity; whether a missing creative actually triggers a
// new job is the dispatcher's decision. A document yielding zero
// substitutions serializes back structurally unchanged.
func (n *Normalizer) Normalize(doc Document, lookup LookupFunc) (found, missing []ManifestAsset) {
	seen := make(map[string]bool)
	for _, ad := range doc.Ads() {
		identity := n.keys.Identity(ad)
		best := BestMediaFile(ad)
		if identity == "" || best == nil {
			continue
		}
		info, ok := lookup(identity)
		if ok && info.Status == store.StatusCompleted && info.Url != "" {
			// Rewrite every occurrence, report the identity once.
			best.URL = info.Url
			best.Type = HLSMimeType
			if !seen[identity] {
				seen[identity] = true
				found = append(found, ManifestAsset{
					CreativeID:        identity,
					MasterPlaylistURL: info.Url,
				})
			}
			continue
		}
		if !seen[identity] {
			seen[identity] = true
			missing = append(missing, ManifestAsset{
				CreativeID:        identity,
				MasterPlaylistURL: best.URL,
			})
		}
	}
	return found, missing
}
