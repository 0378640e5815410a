package kafka

import (
	"context"

	"github.com/zbreeden/pulse/internal/domain/broadcast"
)

// BroadcastEventsKafka announces newly appended ledger records. Purely
// advisory: the pipeline never depends on a publish succeeding.
type BroadcastEventsKafka struct {
	p *Producer
}

func NewBroadcastEventsKafka(p *Producer) *BroadcastEventsKafka {
	return &BroadcastEventsKafka{p: p}
}

func (e *BroadcastEventsKafka) BroadcastAppended(ctx context.Context, rec broadcast.Record) error {
	return e.p.PublishJSON(ctx, []byte(rec.ID), rec)
}
