// Package service runs a track and field competition: it prepares or resumes
// the competition document, then sequences events and feeds them game ticks.
package service

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/trackfield/internal/adapters/repository"
	"github.com/okian/trackfield/internal/competitor"
	"github.com/okian/trackfield/internal/domain/scoring"
	"github.com/okian/trackfield/internal/event"
	"github.com/okian/trackfield/internal/host"
	"github.com/okian/trackfield/internal/ui"
	"github.com/okian/trackfield/pkg/logger"
	"github.com/okian/trackfield/pkg/metrics"
)

// CurrentCompetitionFile is the name of the document that marks a
// competition in progress.
const CurrentCompetitionFile = "current_competition.json"

// competitionDirLayout names the per-competition directory.
const competitionDirLayout = "2006-01-02T15-04-05"

// CompetitionDocument lists the competitors and the events of a competition.
type CompetitionDocument struct {
	ID                 string       `json:"id"`
	CreatedAt          time.Time    `json:"created_at"`
	CompetitorCfgFiles []string     `json:"competitor_cfg_files"`
	EventDocuments     []event.Meta `json:"event_documents"`
}

// standings is implemented by events that can rank their results.
type standings interface {
	Standings() []scoring.Entry
}

// TrackAndField drives a competition.
type TrackAndField struct {
	mu sync.RWMutex

	host     host.Host
	store    repository.Store
	registry *event.Registry
	gate     ui.Gate
	screen   *ui.ScreenLog
	spawner  event.Spawner
	comms    event.Broadcaster
	logger   logger.Logger
	now      func() time.Time

	dataDir           string
	eventTypes        []string
	readyTimeout      time.Duration
	stabilizePolls    int
	stabilizeInterval time.Duration
	clearBefore       time.Duration
	clearAfter        time.Duration

	// State
	doc        *CompetitionDocument
	eventIndex int
	started    bool
	standings  map[string][]scoring.Entry
}

// New constructs a TrackAndField talking to h.
func New(h host.Host, opts ...Option) *TrackAndField {
	t := &TrackAndField{
		host:              h,
		store:             repository.NewFileStore(),
		registry:          event.NewRegistry(),
		logger:            logger.Nop(),
		now:               time.Now,
		dataDir:           "data",
		readyTimeout:      7 * time.Second,
		stabilizePolls:    20,
		stabilizeInterval: 500 * time.Millisecond,
		clearBefore:       1500 * time.Millisecond,
		clearAfter:        3 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	if len(t.eventTypes) == 0 {
		t.eventTypes = t.registry.Types()
	}
	if t.screen == nil {
		t.screen = ui.NewScreenLog(h, ui.WithScreenLogger(t.logger))
	}
	if t.gate == nil {
		t.gate = ui.AutoGate{Log: t.logger}
	}
	return t
}

// CurrentCompetitionPath is where the competition document lives.
func (t *TrackAndField) CurrentCompetitionPath() string {
	return filepath.Join(t.dataDir, CurrentCompetitionFile)
}

// Prepare resumes the current competition or starts a new one.
//
// An existing document is reused as is; if competitors are supplied they must
// match the stored config paths. Otherwise every configured event is
// initialized under a fresh timestamped directory.
func (t *TrackAndField) Prepare(ctx context.Context, competitors []competitor.Competitor) (CompetitionDocument, error) {
	path := t.CurrentCompetitionPath()
	exists, err := t.store.Exists(ctx, path)
	if err != nil {
		return CompetitionDocument{}, fmt.Errorf("prepare: %w", err)
	}

	if exists {
		var doc CompetitionDocument
		if err := t.store.Load(ctx, path, &doc); err != nil {
			return CompetitionDocument{}, fmt.Errorf("prepare: %w", err)
		}
		t.logger.Info(ctx, "resuming competition", logger.String("path", path), logger.String("id", doc.ID))
		if len(competitors) > 0 {
			paths := competitor.ConfigPaths(competitors)
			if !slices.Equal(paths, doc.CompetitorCfgFiles) {
				return CompetitionDocument{}, fmt.Errorf("%w: supplied %v, stored %v; remove or rename %s to start fresh",
					ErrCompetitorMismatch, paths, doc.CompetitorCfgFiles, path)
			}
		}
		t.setDoc(&doc)
		return doc, nil
	}

	events := make([]event.Event, 0, len(t.eventTypes))
	for _, et := range t.eventTypes {
		e, err := t.registry.New(et)
		if err != nil {
			return CompetitionDocument{}, fmt.Errorf("prepare: %w", err)
		}
		events = append(events, e)
	}

	created := t.now()
	dir := filepath.Join(t.dataDir, created.Format(competitionDirLayout))
	metas := make([]event.Meta, 0, len(events))
	for _, e := range events {
		meta, err := e.Init(ctx, competitors, dir)
		if err != nil {
			return CompetitionDocument{}, fmt.Errorf("prepare %s: %w", e.Type(), err)
		}
		metas = append(metas, meta)
	}

	doc := CompetitionDocument{
		ID:                 uuid.NewString(),
		CreatedAt:          created.UTC(),
		CompetitorCfgFiles: competitor.ConfigPaths(competitors),
		EventDocuments:     metas,
	}
	if err := t.store.Save(ctx, path, doc); err != nil {
		return CompetitionDocument{}, fmt.Errorf("prepare: %w", err)
	}
	t.logger.Info(ctx, "created competition",
		logger.String("id", doc.ID),
		logger.String("dir", dir),
		logger.Int("competitors", len(competitors)),
		logger.Strings("events", t.eventTypes),
	)
	t.setDoc(&doc)
	return doc, nil
}

func (t *TrackAndField) setDoc(doc *CompetitionDocument) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.doc = doc
}

// Run plays every remaining event, then waits for the operator to quit.
func (t *TrackAndField) Run(ctx context.Context) error {
	t.mu.RLock()
	doc := t.doc
	t.mu.RUnlock()
	if doc == nil {
		return ErrNotPrepared
	}
	if t.spawner == nil || t.comms == nil {
		return fmt.Errorf("%w: spawner and comms are required", ErrMissingDependency)
	}

	if err := t.screen.Log(ctx, "Welcome to Track and Field!"); err != nil {
		return err
	}
	if err := t.waitForStabilization(ctx); err != nil {
		return err
	}
	events, err := t.loadEvents(ctx, doc.EventDocuments)
	if err != nil {
		return err
	}

	t.mu.Lock()
	t.eventIndex = 0
	t.started = true
	t.mu.Unlock()
	for _, e := range events {
		t.snapshotStandings(e)
	}
	defer func() {
		t.mu.Lock()
		t.started = false
		t.mu.Unlock()
	}()

	if err := t.screen.Logf(ctx, "Running %d track and field events...", len(events)); err != nil {
		return err
	}

	var active event.Event
	for {
		p, err := t.host.WaitPacket(ctx)
		if err != nil {
			return fmt.Errorf("wait packet: %w", err)
		}
		start := time.Now()

		if active == nil {
			idx := t.index()
			if idx >= len(events) {
				if err := t.screen.Log(ctx, "Finished all Track and Field events!"); err != nil {
					return err
				}
				if err := t.gate.Wait(ctx, "q", "quit"); err != nil {
					return err
				}
				return t.exitGracefully(ctx)
			}
			active = events[idx]
			if err := t.screen.Logf(ctx, "Event: %s", active.Name()); err != nil {
				return err
			}
			if err := t.gate.Wait(ctx, "j", "proceed to "+active.Name()); err != nil {
				return err
			}
			metrics.RecordEventStarted(active.Type())
			metrics.UpdateActiveEvent(idx)
			t.logger.Info(ctx, "event started", logger.String("event", active.Type()), logger.Int("index", idx))
		}

		status, err := active.Tick(ctx, p)
		if err != nil {
			metrics.RecordEventError(active.Type())
			return fmt.Errorf("tick %s: %w", active.Type(), err)
		}
		metrics.RecordTick(float64(time.Since(start).Microseconds()) / 1000)
		t.snapshotStandings(active)

		if status.IsComplete {
			metrics.RecordEventCompleted(active.Type())
			t.logger.Info(ctx, "event complete", logger.String("event", active.Type()))
			t.mu.Lock()
			t.eventIndex++
			t.mu.Unlock()
			active = nil
		}
	}
}

// snapshotStandings copies e's ranking for GetStats; events are only touched
// by the Run goroutine.
func (t *TrackAndField) snapshotStandings(e event.Event) {
	s, ok := e.(standings)
	if !ok {
		return
	}
	entries := s.Standings()
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.standings == nil {
		t.standings = make(map[string][]scoring.Entry)
	}
	t.standings[e.Type()] = entries
}

func (t *TrackAndField) index() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.eventIndex
}

// waitForStabilization gives bots of a running match time to see their own
// car, then clears them so the first event starts from an empty field.
func (t *TrackAndField) waitForStabilization(ctx context.Context) error {
	for i := 0; i < t.stabilizePolls; i++ {
		p, err := t.host.Packet(ctx)
		if err != nil {
			return fmt.Errorf("stabilize: %w", err)
		}
		if p.GameInfo.IsRoundActive {
			if err := sleep(ctx, t.clearBefore); err != nil {
				return err
			}
			if err := t.screen.Log(ctx, "Clearing bots to prepare for track and field."); err != nil {
				return err
			}
			if err := t.spawner.ClearBots(ctx); err != nil {
				return fmt.Errorf("stabilize: %w", err)
			}
			if err := t.screen.Log(ctx, "Bots cleared, waiting for processes to die..."); err != nil {
				return err
			}
			return sleep(ctx, t.clearAfter)
		}
		if err := sleep(ctx, t.stabilizeInterval); err != nil {
			return err
		}
	}
	t.logger.Warn(ctx, "round never became active", logger.Int("polls", t.stabilizePolls))
	return nil
}

func (t *TrackAndField) loadEvents(ctx context.Context, metas []event.Meta) ([]event.Event, error) {
	events := make([]event.Event, 0, len(metas))
	for _, meta := range metas {
		e, err := t.registry.New(meta.EventType)
		if err != nil {
			return nil, err
		}
		deps := event.Deps{
			Host:         t.host,
			Spawner:      t.spawner,
			Comms:        t.comms,
			Gate:         t.gate,
			Screen:       t.screen,
			Logger:       t.logger.Named(meta.EventType),
			ReadyTimeout: t.readyTimeout,
		}
		if err := e.Load(ctx, meta, deps); err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, nil
}

func (t *TrackAndField) exitGracefully(ctx context.Context) error {
	t.logger.Info(ctx, "exiting gracefully")
	if err := t.screen.Clear(ctx); err != nil {
		return err
	}
	return t.host.ClearScreen(ctx, ui.GroupPrompt)
}

// GetStats returns competition progress for the status server.
func (t *TrackAndField) GetStats() map[string]interface{} {
	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     t.started,
		"event_index": t.eventIndex,
	}
	if t.doc == nil {
		return stats
	}

	names := make([]string, 0, len(t.doc.EventDocuments))
	for _, m := range t.doc.EventDocuments {
		names = append(names, m.EventType)
	}
	stats["events"] = names
	stats["competitors"] = len(t.doc.CompetitorCfgFiles)
	stats["competition_id"] = t.doc.ID

	if len(t.standings) > 0 {
		table := make(map[string][]scoring.Entry, len(t.standings))
		for k, v := range t.standings {
			table[k] = v
		}
		stats["standings"] = table
	}
	return stats
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
