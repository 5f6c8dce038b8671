// SPDX-License-Identifier: MIT

package vast

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
)

// Format identifies the wire format of an ad-break document.
type Format string

const (
	FormatVAST Format = "vast"
	FormatVMAP Format = "vmap"
)

// Document is the capability shared by both wire formats: enumerate the
// embedded ads and serialize back to XML. Implemented by *VAST and *VMAP.
type Document interface {
	// Ads returns pointers to every embedded ad, across all breaks, in
	// document order. Mutations through the pointers affect serialization.
	Ads() []*Ad
	// Format reports the wire format of the document.
	Format() Format
	// Marshal serializes the document, preserving element ordering and
	// unaffected attributes.
	Marshal() ([]byte, error)
}

// maxDocumentSize bounds inbound documents (ad responses are small).
const maxDocumentSize = 10 * 1024 * 1024

// newDecoder returns a hardened XML decoder: strict mode, no entity
// expansion, bounded input.
func newDecoder(b []byte) *xml.Decoder {
	dec := xml.NewDecoder(io.LimitReader(bytes.NewReader(b), maxDocumentSize))
	dec.Strict = true
	dec.Entity = make(map[string]string)
	return dec
}

// ParseVAST decodes a VAST document.
func ParseVAST(b []byte) (*VAST, error) {
	var doc VAST
	if err := newDecoder(b).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode vast: %w", err)
	}
	return &doc, nil
}

// ParseVMAP decodes a VMAP document.
func ParseVMAP(b []byte) (*VMAP, error) {
	var doc VMAP
	if err := newDecoder(b).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode vmap: %w", err)
	}
	return &doc, nil
}

// Detect sniffs the root element of b and reports the document format.
func Detect(b []byte) (Format, error) {
	dec := newDecoder(b)
	for {
		tok, err := dec.Token()
		if err != nil {
			return "", fmt.Errorf("detect format: %w", err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch start.Name.Local {
		case "VMAP":
			return FormatVMAP, nil
		case "VAST":
			return FormatVAST, nil
		default:
			return "", fmt.Errorf("detect format: unexpected root element %q", start.Name.Local)
		}
	}
}

// Parse sniffs the format of b and decodes it into the matching document.
func Parse(b []byte) (Document, error) {
	format, err := Detect(b)
	if err != nil {
		return nil, err
	}
	return ParseAs(b, format)
}

// ParseAs decodes b as the given format.
func ParseAs(b []byte, format Format) (Document, error) {
	if format == FormatVMAP {
		return ParseVMAP(b)
	}
	return ParseVAST(b)
}

// Ads returns pointers to the document's ads.
func (v *VAST) Ads() []*Ad {
	out := make([]*Ad, 0, len(v.Ad))
	for i := range v.Ad {
		out = append(out, &v.Ad[i])
	}
	return out
}

// Format reports FormatVAST.
func (v *VAST) Format() Format { return FormatVAST }

// Marshal serializes the document with an XML declaration.
func (v *VAST) Marshal() ([]byte, error) {
	return marshalDocument(v)
}

// Ads returns pointers to every ad across all breaks, in document order.
func (v *VMAP) Ads() []*Ad {
	var out []*Ad
	for i := range v.AdBreak {
		src := v.AdBreak[i].AdSource
		if src == nil || src.VASTAdData == nil || src.VASTAdData.VAST == nil {
			continue
		}
		out = append(out, src.VASTAdData.VAST.Ads()...)
	}
	return out
}

// Format reports FormatVMAP.
func (v *VMAP) Format() Format { return FormatVMAP }

// Marshal serializes the document with an XML declaration.
func (v *VMAP) Marshal() ([]byte, error) {
	return marshalDocument(v)
}

func marshalDocument(doc any) ([]byte, error) {
	body, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	return append([]byte(xml.Header), body...), nil
}

// EmptyDocument returns a well-formed empty document of the given format,
// used as the degraded response when upstream fetch or parsing fails.
func EmptyDocument(format Format) Document {
	if format == FormatVMAP {
		return &VMAP{Version: "1.0"}
	}
	return &VAST{Version: "4.0"}
}
