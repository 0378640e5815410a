// Package ingest turns raw broadcast payloads into normalized records.
package ingest

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/zbreeden/pulse/internal/domain/broadcast"
)

// Parse accepts the three payload shapes publishers are known to emit,
// tried in fixed priority order:
//
//  1. a single JSON object
//  2. an array of JSON objects (non-object elements dropped)
//  3. newline-delimited objects, one per line (bad lines skipped)
//
// Blank input yields no records. Parse never fails: malformed input
// degrades to fewer records.
func Parse(raw []byte) []broadcast.Record {
	text := bytes.TrimSpace(raw)
	if len(text) == 0 {
		return nil
	}

	if doc, ok := decodeObject(text); ok {
		return []broadcast.Record{broadcast.FromDocument(doc)}
	}
	if docs, ok := decodeArray(text); ok {
		recs := make([]broadcast.Record, 0, len(docs))
		for _, doc := range docs {
			recs = append(recs, broadcast.FromDocument(doc))
		}
		return recs
	}
	return decodeLines(text)
}

func decodeObject(b []byte) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var doc map[string]any
	if err := dec.Decode(&doc); err != nil || doc == nil {
		return nil, false
	}
	if !atEOF(dec) {
		return nil, false
	}
	return doc, true
}

func decodeArray(b []byte) ([]map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var elems []any
	if err := dec.Decode(&elems); err != nil {
		return nil, false
	}
	if !atEOF(dec) {
		return nil, false
	}
	docs := make([]map[string]any, 0, len(elems))
	for _, e := range elems {
		if doc, ok := e.(map[string]any); ok {
			docs = append(docs, doc)
		}
	}
	return docs, true
}

func decodeLines(b []byte) []broadcast.Record {
	var recs []broadcast.Record
	for _, line := range bytes.Split(b, []byte("\n")) {
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}
		doc, ok := decodeObject(line)
		if !ok {
			continue
		}
		recs = append(recs, broadcast.FromDocument(doc))
	}
	return recs
}

// atEOF reports whether the decoder consumed the whole input, so
// "{...} trailing garbage" is not mistaken for a valid document.
func atEOF(dec *json.Decoder) bool {
	_, err := dec.Token()
	return err == io.EOF
}
