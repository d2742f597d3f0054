package crawl

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// worker executes fetches for targets handed out by the coordinator. Workers
// never touch the visited set, frontier, or path tracker; every observation
// flows back as one PageOutcome.
type worker struct {
	id        int
	runID     string
	cfg       Config
	queue     Queue
	fetcher   Fetcher
	extractor LinkExtractor
	limiter   Limiter
	archive   Archive
	hasher    Hasher
	agents    *AgentRotation
	clock     Clock
	outcomes  chan<- PageOutcome
	logger    *zap.Logger
}

// Run dequeues targets until the queue closes or ctx ends.
func (w *worker) Run(ctx context.Context) {
	for {
		target, err := w.queue.Dequeue(ctx)
		if err != nil {
			return
		}
		w.process(ctx, target)
	}
}

func (w *worker) process(ctx context.Context, t Target) {
	outcome := PageOutcome{Target: t, FetchedAt: w.clock.Now()}

	if w.limiter != nil {
		if err := w.limiter.Wait(ctx, t.Key); err != nil {
			outcome.Err = &FetchError{URL: t.Key, Err: fmt.Errorf("rate wait: %w", err)}
			w.send(ctx, outcome)
			return
		}
	}

	resp, err := w.fetchPage(ctx, t)
	if err != nil {
		outcome.Err = err
		w.send(ctx, outcome)
		return
	}

	outcome.Status = resp.StatusCode
	outcome.Bytes = int64(len(resp.Body))
	outcome.Duration = resp.Duration
	outcome.PageType = ClassifyPage(t.Key)
	if w.cfg.Keyword != "" {
		outcome.KeywordHit = MatchKeyword(resp.Body, w.cfg.Keyword)
	}

	w.archiveBody(ctx, t, resp.Body)

	// Children would land at t.Depth+1; skip extraction when none could be
	// admitted anyway.
	if w.cfg.SearchLinks && t.Depth < w.cfg.Depth {
		links, extractErr := w.extractor.Extract(resp.URL, resp.Body)
		if extractErr != nil {
			w.logger.Warn("link extraction failed",
				zap.String("url", t.Key),
				zap.Error(extractErr))
		} else {
			outcome.Links = links
		}
	}

	w.send(ctx, outcome)
}

// fetchPage runs one attempt plus any configured retries. Retries are an
// extension point and default to zero.
func (w *worker) fetchPage(ctx context.Context, t Target) (FetchResponse, error) {
	attempts := w.cfg.RetryAttempts + 1
	var lastErr error
	for i := 0; i < attempts; i++ {
		resp, err := w.fetcher.Fetch(ctx, FetchRequest{
			URL:       t.Key,
			UserAgent: w.agents.Next(),
			Timeout:   w.cfg.Timeout,
		})
		TotalFetches.Inc()
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if IsTimeout(err) {
			TotalFetchErrors.WithLabelValues("timeout").Inc()
		} else {
			TotalFetchErrors.WithLabelValues("transport").Inc()
		}
		if ctx.Err() != nil {
			break
		}
	}
	var fe *FetchError
	if !errors.As(lastErr, &fe) {
		lastErr = &FetchError{URL: t.Key, Err: lastErr}
	}
	return FetchResponse{}, lastErr
}

// archiveBody saves the fetched body under <runID>/<sha256(key)>.html.
// Archive failures are logged and never fail the page.
func (w *worker) archiveBody(ctx context.Context, t Target, body []byte) {
	if w.archive == nil || len(body) == 0 {
		return
	}
	digest, err := w.hasher.Hash([]byte(t.Key))
	if err != nil {
		w.logger.Warn("archive name hash failed", zap.String("url", t.Key), zap.Error(err))
		return
	}
	name := fmt.Sprintf("%s/%s.html", w.runID, digest)
	if err := w.archive.Save(ctx, name, body); err != nil {
		storageErr := &StorageError{Op: "archive", Path: name, Err: err}
		w.logger.Warn("page archive failed", zap.String("url", t.Key), zap.Error(storageErr))
	}
}

// send hands the outcome to the coordinator. Outcomes produced after
// cancellation are dropped; the coordinator requeues their targets through
// the pause checkpoint instead.
func (w *worker) send(ctx context.Context, o PageOutcome) {
	if ctx.Err() != nil {
		return
	}
	select {
	case w.outcomes <- o:
	case <-ctx.Done():
	}
}
