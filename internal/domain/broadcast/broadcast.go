// Package broadcast defines the record type shared by every stage of the
// ingestion pipeline: a status document published by one source at one
// point in time.
package broadcast

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// TimeLayout is the timestamp shape every publisher agreed on.
// Anything else is treated as unparsable, not coerced.
const TimeLayout = "2006-01-02T15:04:05Z"

// Record is one broadcast. The named fields are the ones merge and KPI
// derivation depend on; everything else a source publishes is preserved
// untouched in Extra so the record round-trips losslessly.
type Record struct {
	ID       string
	TsUTC    string
	Repo     string
	Module   string
	Rating   string
	Date     string
	Checksum string

	// Extra holds links and any extension fields. Values keep the shapes
	// they were decoded with (json.Number for numbers).
	Extra map[string]any
}

const (
	fieldID       = "id"
	fieldTsUTC    = "ts_utc"
	fieldRepo     = "repo"
	fieldModule   = "module"
	fieldRating   = "rating"
	fieldDate     = "date"
	fieldChecksum = "checksum"
)

// FromDocument builds a Record from a generic decoded JSON object.
// Known fields must be strings to be lifted out; anything else stays
// in Extra, so a malformed "id": 7 is visible as a missing id.
func FromDocument(doc map[string]any) Record {
	var r Record
	for k, v := range doc {
		if s, ok := v.(string); ok {
			switch k {
			case fieldID:
				r.ID = s
				continue
			case fieldTsUTC:
				r.TsUTC = s
				continue
			case fieldRepo:
				r.Repo = s
				continue
			case fieldModule:
				r.Module = s
				continue
			case fieldRating:
				r.Rating = s
				continue
			case fieldDate:
				r.Date = s
				continue
			case fieldChecksum:
				r.Checksum = s
				continue
			}
		}
		if r.Extra == nil {
			r.Extra = make(map[string]any)
		}
		r.Extra[k] = v
	}
	return r
}

// Document flattens the record back into a generic JSON object.
// Empty named fields are treated as absent.
func (r Record) Document() map[string]any {
	doc := make(map[string]any, len(r.Extra)+7)
	for k, v := range r.Extra {
		doc[k] = v
	}
	if r.ID != "" {
		doc[fieldID] = r.ID
	}
	if r.TsUTC != "" {
		doc[fieldTsUTC] = r.TsUTC
	}
	if r.Repo != "" {
		doc[fieldRepo] = r.Repo
	}
	if r.Module != "" {
		doc[fieldModule] = r.Module
	}
	if r.Rating != "" {
		doc[fieldRating] = r.Rating
	}
	if r.Date != "" {
		doc[fieldDate] = r.Date
	}
	if r.Checksum != "" {
		doc[fieldChecksum] = r.Checksum
	}
	return doc
}

// ContentChecksum is the hex SHA-256 of the record's canonical form: the
// flattened document minus the checksum field itself, serialized with keys
// sorted (encoding/json orders map keys). Deterministic for a given record.
func (r Record) ContentChecksum() string {
	doc := r.Document()
	delete(doc, fieldChecksum)
	b, err := json.Marshal(doc)
	if err != nil {
		// Extra values come from json decoding, so this cannot happen
		// for records produced by the parser.
		b = []byte{}
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Page returns links.page when present.
func (r Record) Page() string {
	links, _ := r.Extra["links"].(map[string]any)
	page, _ := links["page"].(string)
	return page
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Document())
}

func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil {
		return err
	}
	*r = FromDocument(doc)
	return nil
}
