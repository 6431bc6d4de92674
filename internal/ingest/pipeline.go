package ingest

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"mediacatalog/internal/catalog"
	"mediacatalog/internal/eventbus"
)

// ScanPhase selects which of the four lifecycle entry points spec
// §4.4 names is run across every registered source.
type ScanPhase int

const (
	PhaseInitScan ScanPhase = iota
	PhaseRescan
	PhaseMetaRescan
	PhaseFullRescan
)

// Pipeline orchestrates scans across a Registry: only one scan runs at
// a time (spec §4.4 "Concurrency": "the scan flag short-circuits a
// second request"), and coalesced LISTENER_DATABASE/LISTENER_UPDATE
// events are emitted after each pass. The Pipeline itself never purges;
// purging is done by a source's own FullRescan (the files source runs a
// scan_kind-scoped purge_cruft, the spotify source its own purge; rss
// and itunes do not purge).
type Pipeline struct {
	registry *catalogSourceRegistry
	store    *catalog.Store
	bus      *eventbus.Bus
	logger   *zap.Logger

	concurrency int64
	coalesce    time.Duration

	scanning int32 // atomic bool: library_set_scanning
	exiting  int32 // atomic bool: library_is_exiting

	cmdCh  chan func(context.Context)
	wg     sync.WaitGroup
	cancel context.CancelFunc

	coalesceMu    sync.Mutex
	coalesceTimer *time.Timer
}

// catalogSourceRegistry is a tiny alias so Pipeline's zero value is
// still useful in tests that only exercise scan-flag/async-exec
// behavior against an empty *Registry.
type catalogSourceRegistry = Registry

// NewPipeline builds a Pipeline bound to registry. concurrency bounds
// how many sources may scan in parallel in one pass (spec §6
// library.directories is a list, but the files source's own directory
// walk is further bounded internally — this concurrency figure is the
// cross-source fan-out width); coalesce bounds how long
// LISTENER_DATABASE/LISTENER_UPDATE emission is delayed to batch
// rapid successive scans (spec §4.4 step 4).
func NewPipeline(registry *Registry, store *catalog.Store, bus *eventbus.Bus, logger *zap.Logger, concurrency int, coalesce time.Duration) *Pipeline {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Pipeline{
		registry:    registry,
		store:       store,
		bus:         bus,
		logger:      logger,
		concurrency: int64(concurrency),
		coalesce:    coalesce,
		cmdCh:       make(chan func(context.Context), 64),
	}
}

// Start launches the library worker goroutine that serially drains
// commands enqueued via ExecAsync (spec §4.4 "library_exec_async
// enqueues a function onto a command channel served by a dedicated
// library worker").
func (p *Pipeline) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case fn, ok := <-p.cmdCh:
				if !ok {
					return
				}
				fn(ctx)
			}
		}
	}()
}

// Stop sets library_is_exiting, cancels the library worker's context,
// and waits for the worker to exit (spec §5 "Clean shutdown": "set
// exit flag, wait for library thread join"). The command channel is not
// closed, and commands still queued on it may be left unrun.
func (p *Pipeline) Stop() {
	atomic.StoreInt32(&p.exiting, 1)
	if p.cancel != nil {
		p.cancel()
	}
	p.wg.Wait()
}

// IsExiting reports library_is_exiting, polled by long-running scans
// between items/feed entries (spec §5 "Cancellation").
func (p *Pipeline) IsExiting() bool {
	return atomic.LoadInt32(&p.exiting) != 0
}

// ExecAsync enqueues fn onto the library worker's command channel. If
// the channel is full the call blocks, matching a single dedicated
// worker's natural backpressure.
func (p *Pipeline) ExecAsync(fn func(context.Context)) {
	p.cmdCh <- fn
}

// IsScanning reports library_set_scanning's current value (spec §4.4
// step 1). The catalog store does not read it; no cache invalidation
// is suspended during a scan.
func (p *Pipeline) IsScanning() bool {
	return atomic.LoadInt32(&p.scanning) != 0
}

// RunScan executes phase across every registered, enabled source, one
// scan at a time (spec §4.4 "Scan lifecycle"): sets the scanning flag,
// fans the per-source scan calls out up to p.concurrency at a time,
// clears the flag, runs ANALYZE, and emits a coalesced update event.
// A second RunScan call observed while one is already in flight
// returns immediately without starting a new pass (the scan-flag
// short-circuit spec §4.4 "Concurrency" describes).
func (p *Pipeline) RunScan(ctx context.Context, phase ScanPhase) error {
	if !atomic.CompareAndSwapInt32(&p.scanning, 0, 1) {
		p.logger.Info("ingest: scan already in progress, skipping")
		return nil
	}
	defer atomic.StoreInt32(&p.scanning, 0)

	// Every scan run gets its own id so a source's log lines (and any
	// errors it returns) can be correlated back to the run that caused
	// them, even when RunScan is called back-to-back across sources.
	runID := uuid.New().String()
	p.logger.Info("ingest: scan run starting", zap.String("scan_run_id", runID), zap.Int("phase", int(phase)))

	g, gctx := errgroup.WithContext(ctx)
	sem := semaphore.NewWeighted(p.concurrency)

	for _, src := range p.registry.All() {
		src := src
		if p.IsExiting() {
			break
		}
		if err := sem.Acquire(gctx, 1); err != nil {
			return fmt.Errorf("ingest: acquire scan slot: %w", err)
		}
		g.Go(func() error {
			defer sem.Release(1)
			return p.runPhaseOn(gctx, runID, src, phase)
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("ingest: scan %s: %w", runID, err)
	}

	atomic.StoreInt32(&p.scanning, 0)
	if err := p.store.RunAnalyze(ctx); err != nil {
		p.logger.Warn("ingest: post-scan ANALYZE failed", zap.String("scan_run_id", runID), zap.Error(err))
	}

	p.logger.Info("ingest: scan run complete", zap.String("scan_run_id", runID))
	p.emitCoalesced(ctx)
	return nil
}

func (p *Pipeline) runPhaseOn(ctx context.Context, runID string, src LibrarySource, phase ScanPhase) error {
	var err error
	switch phase {
	case PhaseInitScan:
		err = src.InitScan(ctx)
	case PhaseRescan:
		err = src.Rescan(ctx)
	case PhaseMetaRescan:
		err = src.MetaRescan(ctx)
	case PhaseFullRescan:
		err = src.FullRescan(ctx)
	}
	if err != nil {
		p.logger.Error("ingest: source scan failed",
			zap.String("scan_run_id", runID), zap.Int("scan_kind", int(src.ScanKind())), zap.Error(err))
	}
	return err
}

// emitCoalesced delays LISTENER_DATABASE/LISTENER_UPDATE emission by
// p.coalesce so several scans completing in quick succession produce
// one notification instead of one per scan (spec §4.4 step 4).
func (p *Pipeline) emitCoalesced(ctx context.Context) {
	if p.bus == nil {
		return
	}
	if p.coalesce <= 0 {
		p.publishUpdate()
		return
	}

	p.coalesceMu.Lock()
	defer p.coalesceMu.Unlock()
	if p.coalesceTimer != nil {
		p.coalesceTimer.Stop()
	}
	p.coalesceTimer = time.AfterFunc(p.coalesce, p.publishUpdate)
}

func (p *Pipeline) publishUpdate() {
	p.bus.Publish(eventbus.Event{Type: eventbus.EventDatabase, Source: "ingest"})
	p.bus.Publish(eventbus.Event{Type: eventbus.EventUpdate, Source: "ingest"})
}
