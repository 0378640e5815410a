// Package sweep orchestrates one aggregation run: fetch every source's
// current broadcast, parse and normalize it, merge into the history
// ledger, derive KPIs, and persist the outputs in one commit.
package sweep

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	pulsecfg "github.com/zbreeden/pulse/internal/config/pulse"
	"github.com/zbreeden/pulse/internal/domain/broadcast"
	"github.com/zbreeden/pulse/internal/ingest"
	"github.com/zbreeden/pulse/internal/kpi"
	"github.com/zbreeden/pulse/internal/ledger"
	"github.com/zbreeden/pulse/internal/registry"
)

// Fetcher retrieves a source's current document. found=false means the
// source has not published yet.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (raw []byte, found bool, err error)
}

// Store owns the persistence boundary: history in at run start, all
// outputs out at run end.
type Store interface {
	LoadHistory(ctx context.Context) ([]broadcast.Record, error)
	WriteRun(ctx context.Context, history []broadcast.Record, snap *kpi.Snapshot) error
}

// Announcer publishes newly appended records after a successful persist.
type Announcer interface {
	BroadcastAppended(ctx context.Context, rec broadcast.Record) error
}

// Result summarizes one sweep for logs and metrics.
type Result struct {
	Sources     int
	FetchErrors int
	Parsed      int
	Appended    int
	LedgerSize  int
}

type Sweeper struct {
	log      *zap.Logger
	sources  []registry.Source
	fetcher  Fetcher
	store    Store
	announce Announcer // nil when eventing is disabled
	clock    broadcast.Clock
	norm     *ingest.Normalizer
	hub      pulsecfg.Hub
	parallel int
}

func NewSweeper(
	log *zap.Logger,
	sources []registry.Source,
	fetcher Fetcher,
	store Store,
	announce Announcer,
	clock broadcast.Clock,
	hub pulsecfg.Hub,
	parallel int,
) *Sweeper {
	if clock == nil {
		clock = broadcast.SystemClock{}
	}
	if parallel <= 0 {
		parallel = 1
	}
	return &Sweeper{
		log:      log,
		sources:  sources,
		fetcher:  fetcher,
		store:    store,
		announce: announce,
		clock:    clock,
		norm:     ingest.NewNormalizer(clock),
		hub:      hub,
		parallel: parallel,
	}
}

// Sweep runs one full pass. Per-source failures degrade that source to
// zero records and never abort the run; fetches run in parallel but the
// merge is a single-threaded reduction afterwards, in registry order, so
// the id-uniqueness invariant holds. Nothing is persisted until the very
// end, and a cancellation before that leaves the previous files intact.
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	runID := uuid.NewString()
	log := s.log.With(zap.String("run_id", runID))

	tr := otel.Tracer("pulse.sweep")
	ctx, span := tr.Start(ctx, "sweep.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("sources.count", len(s.sources)),
		),
	)
	defer span.End()

	res := Result{Sources: len(s.sources)}

	history, err := s.store.LoadHistory(ctx)
	if err != nil {
		span.RecordError(err)
		return res, fmt.Errorf("load history: %w", err)
	}

	batches := make([][]broadcast.Record, len(s.sources))
	fetchErrs := make([]bool, len(s.sources))

	g := new(errgroup.Group)
	g.SetLimit(s.parallel)
	for i, src := range s.sources {
		i, src := i, src
		g.Go(func() error {
			batches[i], fetchErrs[i] = s.collect(ctx, tr, log, src)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return res, err
	}

	var candidates []broadcast.Record
	for i, batch := range batches {
		candidates = append(candidates, batch...)
		if fetchErrs[i] {
			res.FetchErrors++
		}
	}
	res.Parsed = len(candidates)

	merged, appended := ledger.Merge(history, candidates)
	sorted := ledger.SortedByTime(merged)
	snap := kpi.Compute(sorted, s.clock.Now())

	if err := s.store.WriteRun(ctx, sorted, snap); err != nil {
		span.RecordError(err)
		return res, fmt.Errorf("write run: %w", err)
	}

	res.Appended = len(appended)
	res.LedgerSize = len(sorted)

	if s.announce != nil {
		for _, rec := range appended {
			if err := s.announce.BroadcastAppended(ctx, rec); err != nil {
				log.Warn("announce appended broadcast",
					zap.String("id", rec.ID), zap.Error(err))
			}
		}
	}

	span.SetAttributes(
		attribute.Int("sweep.appended", res.Appended),
		attribute.Int("sweep.ledger_size", res.LedgerSize),
	)
	log.Info("sweep complete",
		zap.Int("sources", res.Sources),
		zap.Int("fetch_errors", res.FetchErrors),
		zap.Int("parsed", res.Parsed),
		zap.Int("appended", res.Appended),
		zap.Int("ledger_size", res.LedgerSize),
	)
	return res, nil
}

// collect fetches and normalizes one source's broadcast. All failure
// modes end here: they are logged and the source contributes nothing
// this run.
func (s *Sweeper) collect(ctx context.Context, tr trace.Tracer, log *zap.Logger, src registry.Source) (recs []broadcast.Record, failed bool) {
	_, sp := tr.Start(ctx, "sweep.source",
		trace.WithAttributes(attribute.String("source.repo", src.Repo)),
	)
	defer sp.End()

	url := src.URL
	if url == "" {
		url = fmt.Sprintf(s.hub.URLTemplate, s.hub.Owner, src.Repo)
	}

	raw, found, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		sp.RecordError(err)
		log.Warn("fetch failed", zap.String("repo", src.Repo), zap.Error(err))
		return nil, true
	}
	if !found {
		log.Debug("no broadcast published", zap.String("repo", src.Repo))
		return nil, false
	}

	recs = ingest.Parse(raw)
	for i := range recs {
		s.norm.Normalize(&recs[i], src.Repo)
	}
	sp.SetAttributes(attribute.Int("source.records", len(recs)))
	return recs, false
}
