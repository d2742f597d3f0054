package crawl

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/JakeFAU/linkhound/internal/progress"
)

// State identifies the coordinator lifecycle phase.
type State string

// Coordinator states.
const (
	StateSeeding   State = "seeding"
	StateRunning   State = "running"
	StateDraining  State = "draining"
	StateCompleted State = "completed"
	StateAborted   State = "aborted"
	StatePaused    State = "paused"
)

// Deps bundles the collaborators a Coordinator needs. Queue and Fetcher are
// required; the rest degrade gracefully when nil.
type Deps struct {
	Queue     Queue
	Fetcher   Fetcher
	Extractor LinkExtractor
	Limiter   Limiter
	Archive   Archive
	Hasher    Hasher
	Snapshots Snapshotter
	Publisher Publisher
	Emitter   progress.Emitter
	Clock     Clock
	IDs       IDGenerator
	Logger    *zap.Logger
}

// Coordinator owns the crawl's shared mutable state. Workers communicate with
// it exclusively through the dispatch queue and the outcome intake channel;
// the run loop is the single writer for frontier, visited set, and paths.
type Coordinator struct {
	cfg  Config
	deps Deps

	runID    string
	runUUID  uuid.UUID
	visited  *VisitedSet
	frontier *Frontier
	paths    *PathTracker
	logger   *zap.Logger
	clock    Clock

	seedHosts map[string]struct{}
	restored  *Snapshot

	outcomes chan PageOutcome
	inflight int
	// pending holds dispatched-but-unabsorbed targets so a pause checkpoint
	// returns them to the frontier instead of losing them.
	pending map[string]Target

	stateMu sync.Mutex
	state   State

	fetched     int
	failed      []FailedURL
	nodes       []PageNode
	edges       []LinkEdge
	domains     map[string]int
	keywordHits []string
	started     time.Time

	saves sync.WaitGroup
}

// NewCoordinator validates cfg, verifies snapshot compatibility when restored
// is non-nil, and assembles the crawl state. An incompatible snapshot refuses
// the resume before any network activity.
func NewCoordinator(cfg Config, deps Deps, restored *Snapshot) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Queue == nil {
		return nil, fmt.Errorf("queue is required")
	}
	if deps.Fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if cfg.SearchLinks && deps.Extractor == nil {
		return nil, fmt.Errorf("link extractor is required when search links is enabled")
	}
	if deps.Archive != nil && deps.Hasher == nil {
		return nil, fmt.Errorf("hasher is required when archiving pages")
	}
	if deps.Clock == nil {
		deps.Clock = wallClock{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Emitter == nil {
		deps.Emitter = progress.Nop{}
	}

	if restored != nil {
		if err := restored.Fingerprint.Matches(cfg.Fingerprint()); err != nil {
			return nil, err
		}
	}

	runID, err := newRunID(deps.IDs)
	if err != nil {
		return nil, err
	}

	c := &Coordinator{
		cfg:       cfg,
		deps:      deps,
		runID:     runID,
		runUUID:   parseRunUUID(runID),
		visited:   NewVisitedSet(deps.Clock),
		frontier:  NewFrontier(cfg.Depth),
		paths:     NewPathTracker(),
		logger:    deps.Logger,
		clock:     deps.Clock,
		seedHosts: make(map[string]struct{}, len(cfg.Seeds)),
		pending:   make(map[string]Target),
		restored:  restored,
		domains:   make(map[string]int),
		state:     StateSeeding,
	}
	for _, s := range cfg.Seeds {
		c.seedHosts[Host(s)] = struct{}{}
	}
	return c, nil
}

func newRunID(ids IDGenerator) (string, error) {
	if ids == nil {
		return uuid.NewString(), nil
	}
	id, err := ids.NewID()
	if err != nil {
		return "", fmt.Errorf("generate run id: %w", err)
	}
	return id, nil
}

// parseRunUUID maps any run ID string onto the 16-byte form progress events
// carry; non-UUID IDs hash deterministically.
func parseRunUUID(runID string) uuid.UUID {
	if id, err := uuid.Parse(runID); err == nil {
		return id
	}
	return uuid.NewMD5(uuid.NameSpaceURL, []byte(runID))
}

// RunID returns the identifier minted for this crawl.
func (c *Coordinator) RunID() string { return c.runID }

// State returns the current lifecycle phase.
func (c *Coordinator) State() State {
	c.stateMu.Lock()
	defer c.stateMu.Unlock()
	return c.state
}

func (c *Coordinator) setState(s State) {
	c.stateMu.Lock()
	prev := c.state
	c.state = s
	c.stateMu.Unlock()
	if prev != s {
		c.logger.Debug("coordinator state change",
			zap.String("from", string(prev)),
			zap.String("to", string(s)))
	}
}

// Run executes the crawl to completion, pause, or abort. The crawl ends only
// when the frontier is empty and zero fetches are in flight.
func (c *Coordinator) Run(ctx context.Context) (Result, error) {
	c.started = c.clock.Now()
	c.emitRun(progress.StageRunStart, 0, "")

	if err := c.seed(); err != nil {
		c.setState(StateAborted)
		c.emitRun(progress.StageRunError, c.clock.Now().Sub(c.started), err.Error())
		return c.result(), err
	}

	c.outcomes = make(chan PageOutcome, c.cfg.Threads)
	workerCtx, cancelWorkers := context.WithCancel(ctx)
	var workers sync.WaitGroup
	for i := 0; i < c.cfg.Threads; i++ {
		w := c.newWorker(i)
		workers.Add(1)
		go func() {
			defer workers.Done()
			w.Run(workerCtx)
		}()
	}

	c.setState(StateRunning)
	runErr := c.loop(ctx)

	// Shut the pool down: no new targets, cancel blocked dequeues, wait.
	c.deps.Queue.Close()
	cancelWorkers()
	workers.Wait()
	c.saves.Wait()

	res := c.result()
	switch {
	case runErr != nil:
		c.emitRun(progress.StageRunError, res.Elapsed, runErr.Error())
	default:
		c.emitRun(progress.StageRunDone, res.Elapsed, "")
		c.discardSnapshot()
		c.publishDone()
	}
	return res, runErr
}

// seed populates visited and frontier, either from the restored snapshot or
// from the configured seed list at depth 0.
func (c *Coordinator) seed() error {
	if c.restored != nil {
		c.visited.PreMark(c.restored.Visited)
		c.frontier.Restore(c.restored.Frontier)
		c.paths.Restore(c.restored.Paths)
		c.fetched = c.restored.Stats.Fetched
		c.failed = append(c.failed, c.restored.Stats.Failed...)
		c.logger.Info("resumed from snapshot",
			zap.String("run_id", c.restored.RunID),
			zap.Int("visited", c.visited.Len()),
			zap.Int("frontier", c.frontier.Len()))
		return nil
	}
	for _, s := range c.cfg.Seeds {
		if !c.visited.TryClaim(s, 0) {
			continue
		}
		if c.cfg.Exfiltrate {
			c.paths.RecordSeed(s)
		}
		c.frontier.Push(Target{Key: s, Depth: 0})
	}
	if c.frontier.Len() == 0 {
		return &ConfigError{Field: "seeds", Reason: "no seed could be claimed"}
	}
	return nil
}

func (c *Coordinator) newWorker(id int) *worker {
	return &worker{
		id:        id,
		runID:     c.runID,
		cfg:       c.cfg,
		queue:     c.deps.Queue,
		fetcher:   c.deps.Fetcher,
		extractor: c.deps.Extractor,
		limiter:   c.deps.Limiter,
		archive:   c.deps.Archive,
		hasher:    c.deps.Hasher,
		agents:    NewAgentRotation(c.cfg.UserAgents),
		clock:     c.clock,
		outcomes:  c.outcomes,
		logger:    c.logger.With(zap.Int("worker", id)),
	}
}

// loop is the single-writer scheduling loop: dispatch up to the concurrency
// ceiling, then absorb outcomes, checkpoint ticks, or cancellation. No
// outcome arriving after cancellation mutates shared state.
func (c *Coordinator) loop(ctx context.Context) error {
	ticker := time.NewTicker(c.cfg.CheckpointEvery)
	defer ticker.Stop()

	for {
		// Cancellation outranks any buffered outcome, so a canceled crawl
		// always lands on Paused rather than racing into Completed.
		if ctx.Err() != nil {
			err := fmt.Errorf("crawl interrupted: %w", ctx.Err())
			c.pause(err)
			return err
		}

		if err := c.dispatch(ctx); err != nil {
			c.pause(err)
			return err
		}

		if c.inflight == 0 && c.frontier.Len() == 0 {
			c.setState(StateCompleted)
			return nil
		}
		if c.frontier.Len() == 0 {
			c.setState(StateDraining)
		}

		select {
		case out := <-c.outcomes:
			c.inflight--
			delete(c.pending, out.Target.Key)
			c.absorb(out)
			if c.State() == StateDraining && c.frontier.Len() > 0 {
				c.setState(StateRunning)
			}
		case <-ticker.C:
			c.checkpointAsync()
		case <-ctx.Done():
			err := fmt.Errorf("crawl interrupted: %w", ctx.Err())
			c.pause(err)
			return err
		}
	}
}

// dispatch feeds the queue while honoring the in-flight ceiling. The queue's
// capacity matches the thread count, so these enqueues never block a healthy
// pool.
func (c *Coordinator) dispatch(ctx context.Context) error {
	for c.inflight < c.cfg.Threads {
		t, ok := c.frontier.Pop()
		if !ok {
			return nil
		}
		if err := c.deps.Queue.Enqueue(ctx, t); err != nil {
			return fmt.Errorf("dispatch %s: %w", t.Key, err)
		}
		c.inflight++
		c.pending[t.Key] = t
	}
	return nil
}

// absorb folds one worker outcome into the crawl state.
func (c *Coordinator) absorb(out PageOutcome) {
	if out.Err != nil {
		c.recordFailure(out)
		return
	}

	c.fetched++
	node := PageNode{
		URL:          out.Target.Key,
		Type:         out.PageType,
		Domain:       Host(out.Target.Key),
		ResponseTime: out.Duration.Seconds(),
		Depth:        out.Target.Depth,
	}
	c.nodes = append(c.nodes, node)
	c.domains[node.Domain]++
	if out.KeywordHit {
		c.keywordHits = append(c.keywordHits, out.Target.Key)
	}
	c.deps.Emitter.Emit(progress.Event{
		RunID:       progress.UUIDToBytes(c.runUUID),
		TS:          out.FetchedAt,
		Stage:       progress.StageFetchDone,
		Site:        node.Domain,
		URL:         out.Target.Key,
		Depth:       out.Target.Depth,
		Bytes:       out.Bytes,
		Visits:      1,
		StatusClass: progress.ClassifyStatus(out.Status),
		Dur:         out.Duration,
	})

	c.admitLinks(out)
}

func (c *Coordinator) recordFailure(out PageOutcome) {
	f := FailedURL{URL: out.Target.Key, Reason: out.Err.Error(), Timeout: IsTimeout(out.Err)}
	c.failed = append(c.failed, f)
	c.logger.Warn("fetch failed",
		zap.String("url", f.URL),
		zap.Bool("timeout", f.Timeout),
		zap.Error(out.Err))
	c.deps.Emitter.Emit(progress.Event{
		RunID:       progress.UUIDToBytes(c.runUUID),
		TS:          out.FetchedAt,
		Stage:       progress.StageFetchDone,
		Site:        Host(out.Target.Key),
		URL:         out.Target.Key,
		Depth:       out.Target.Depth,
		StatusClass: progress.StatusOther,
		Note:        out.Err.Error(),
	})
}

// admitLinks runs the admission pipeline for one page's candidates: sample
// the batch, normalize, filter, claim, then push at depth+1.
func (c *Coordinator) admitLinks(out PageOutcome) {
	if len(out.Links) == 0 {
		return
	}
	TotalLinksDiscovered.Add(float64(len(out.Links)))
	admitted := SampleLinks(out.Links, c.cfg.Percentage)
	childDepth := out.Target.Depth + 1
	for _, raw := range admitted {
		key, err := Normalize(raw)
		if err != nil {
			TotalInvalidLinks.Inc()
			continue
		}
		if c.cfg.SameHostOnly {
			if _, ok := c.seedHosts[Host(key)]; !ok {
				continue
			}
		}
		if childDepth > c.cfg.Depth {
			TotalDepthRejected.Inc()
			continue
		}
		if !c.visited.TryClaim(key, childDepth) {
			continue
		}
		c.edges = append(c.edges, LinkEdge{out.Target.Key, key})
		if c.cfg.Exfiltrate {
			c.paths.RecordClaim(key, out.Target.Key)
		}
		c.frontier.Push(Target{Key: key, Depth: childDepth, Parent: out.Target.Key})
		TotalLinksAdmitted.Inc()
	}
}

// pause records the interrupt, writes one final synchronous checkpoint, and
// leaves the snapshot in place for a later resume.
func (c *Coordinator) pause(cause error) {
	c.setState(StatePaused)
	c.logger.Info("pausing crawl", zap.String("cause", cause.Error()))
	c.checkpointNow(context.Background())
}

func (c *Coordinator) buildSnapshot() Snapshot {
	frontier := c.frontier.Snapshot()
	if len(c.pending) > 0 {
		// In-flight targets rejoin the frontier so a resumed run refetches
		// them instead of dropping them.
		requeue := make([]Target, 0, len(c.pending))
		for _, t := range c.pending {
			requeue = append(requeue, t)
		}
		sort.Slice(requeue, func(i, j int) bool { return requeue[i].Key < requeue[j].Key })
		frontier = append(frontier, requeue...)
	}
	snap := Snapshot{
		RunID:       c.runID,
		SavedAt:     c.clock.Now(),
		Fingerprint: c.cfg.Fingerprint(),
		Visited:     c.visited.Snapshot(),
		Frontier:    frontier,
		Stats: SnapshotStats{
			Fetched: c.fetched,
			Failed:  append([]FailedURL(nil), c.failed...),
		},
	}
	if c.cfg.Exfiltrate {
		snap.Paths = c.paths.Snapshot()
	}
	return snap
}

// checkpointAsync copies state in the loop goroutine and writes the file off
// the hot path, so a slow disk never stalls dispatch.
func (c *Coordinator) checkpointAsync() {
	if c.deps.Snapshots == nil {
		return
	}
	snap := c.buildSnapshot()
	c.saves.Add(1)
	go func() {
		defer c.saves.Done()
		c.save(context.Background(), snap)
	}()
}

func (c *Coordinator) checkpointNow(ctx context.Context) {
	if c.deps.Snapshots == nil {
		return
	}
	c.save(ctx, c.buildSnapshot())
}

// save persists one snapshot. Storage failures are logged and the crawl
// continues without a fresh checkpoint.
func (c *Coordinator) save(ctx context.Context, snap Snapshot) {
	err := c.deps.Snapshots.Save(ctx, snap)
	if err != nil {
		TotalCheckpoints.WithLabelValues("error").Inc()
		c.logger.Warn("checkpoint failed", zap.Error(err))
		c.emitCheckpoint(snap, err.Error())
		return
	}
	TotalCheckpoints.WithLabelValues("ok").Inc()
	c.logger.Debug("checkpoint written",
		zap.Int("visited", len(snap.Visited)),
		zap.Int("frontier", len(snap.Frontier)))
	c.emitCheckpoint(snap, "")
}

func (c *Coordinator) emitCheckpoint(snap Snapshot, note string) {
	c.deps.Emitter.Emit(progress.Event{
		RunID:  progress.UUIDToBytes(c.runUUID),
		TS:     snap.SavedAt,
		Stage:  progress.StageCheckpoint,
		Visits: int64(len(snap.Visited)),
		Note:   note,
	})
}

func (c *Coordinator) discardSnapshot() {
	if c.deps.Snapshots == nil {
		return
	}
	if err := c.deps.Snapshots.Discard(); err != nil {
		c.logger.Warn("discarding completed snapshot failed", zap.Error(err))
	}
}

func (c *Coordinator) publishDone() {
	if c.deps.Publisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.deps.Publisher.Publish(ctx, c.runID); err != nil {
		c.logger.Warn("completion publish failed", zap.Error(err))
	}
}

func (c *Coordinator) emitRun(stage progress.Stage, dur time.Duration, note string) {
	c.deps.Emitter.Emit(progress.Event{
		RunID:  progress.UUIDToBytes(c.runUUID),
		TS:     c.clock.Now(),
		Stage:  stage,
		Visits: int64(c.fetched),
		Dur:    dur,
		Note:   note,
	})
}

// result assembles the summary from current state; safe once the pool has
// stopped.
func (c *Coordinator) result() Result {
	res := Result{
		RunID:       c.runID,
		State:       c.State(),
		Started:     c.started,
		Elapsed:     c.clock.Now().Sub(c.started),
		Visited:     c.visited.Len(),
		Fetched:     c.fetched,
		Failed:      append([]FailedURL(nil), c.failed...),
		Nodes:       append([]PageNode(nil), c.nodes...),
		Edges:       append([]LinkEdge(nil), c.edges...),
		Domains:     make(map[string]int, len(c.domains)),
		KeywordHits: append([]string(nil), c.keywordHits...),
	}
	for d, n := range c.domains {
		res.Domains[d] = n
	}
	if c.cfg.Exfiltrate {
		res.LongestLen = c.paths.LongestLen()
		res.LongestPath = c.paths.LongestChain()
	}
	return res
}
