package ingest

import (
	"github.com/zbreeden/pulse/internal/domain/broadcast"
)

// Normalizer fills in the derived fields a publisher may have omitted.
// Fixups run date first, then checksum, then id, so the checksum never
// covers a synthesized id and always covers a derived date.
type Normalizer struct {
	clock broadcast.Clock
}

func NewNormalizer(clock broadcast.Clock) *Normalizer {
	if clock == nil {
		clock = broadcast.SystemClock{}
	}
	return &Normalizer{clock: clock}
}

// Normalize mutates rec in place. repo identifies the source the record
// was fetched from and is only used for id synthesis.
func (n *Normalizer) Normalize(rec *broadcast.Record, repo string) {
	n.ensureDate(rec)
	n.ensureChecksum(rec)
	n.ensureID(rec, repo)
}

// ensureDate derives the YYYY-MM-DD prefix from ts_utc. A record without
// a timestamp keeps no date rather than getting a fabricated one.
func (n *Normalizer) ensureDate(rec *broadcast.Record) {
	if rec.Date == "" && len(rec.TsUTC) >= 10 {
		rec.Date = rec.TsUTC[:10]
	}
}

func (n *Normalizer) ensureChecksum(rec *broadcast.Record) {
	if rec.Checksum == "" {
		rec.Checksum = rec.ContentChecksum()
	}
}

// ensureID synthesizes "<ts>-<repo>-latest", preferring the record's own
// timestamp and falling back to the clock only when the record has none.
func (n *Normalizer) ensureID(rec *broadcast.Record, repo string) {
	if rec.ID != "" {
		return
	}
	ts := rec.TsUTC
	if ts == "" {
		ts = n.clock.Now().UTC().Format(broadcast.TimeLayout)
	}
	rec.ID = ts + "-" + repo + "-latest"
}
