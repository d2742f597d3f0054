// Package report renders finished crawl results into the output directory:
// a CSV table of fetched pages, a JSON link graph, and a structured log
// summary.
package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"go.uber.org/zap"

	"github.com/JakeFAU/linkhound/internal/crawl"
)

// Output file names within the crawl's output directory.
const (
	CSVFileName  = "crawled_data.csv"
	JSONFileName = "crawled_data.json"
)

// Writer renders crawl results to disk and to the log.
type Writer struct {
	dir    string
	logger *zap.Logger
}

// NewWriter returns a Writer rooted at dir, creating it when missing.
func NewWriter(dir string, logger *zap.Logger) (*Writer, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create report dir %s: %w", dir, err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{dir: dir, logger: logger}, nil
}

// WriteAll renders the CSV table and the JSON graph, then logs the summary.
func (w *Writer) WriteAll(res crawl.Result) error {
	if err := w.WriteCSV(res); err != nil {
		return err
	}
	if err := w.WriteJSON(res); err != nil {
		return err
	}
	w.LogSummary(res)
	return nil
}

// WriteCSV writes crawled_data.csv with one row per fetched page.
func (w *Writer) WriteCSV(res crawl.Result) error {
	path := filepath.Join(w.dir, CSVFileName)
	f, err := os.Create(path) // #nosec G304 -- path is rooted at the configured output dir.
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}

	cw := csv.NewWriter(f)
	header := []string{"URL", "Type", "Domain", "Response Time", "Depth"}
	if err := cw.Write(header); err != nil {
		_ = f.Close()
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, node := range res.Nodes {
		record := []string{
			node.URL,
			node.Type,
			node.Domain,
			strconv.FormatFloat(node.ResponseTime, 'f', -1, 64),
			strconv.Itoa(node.Depth),
		}
		if err := cw.Write(record); err != nil {
			_ = f.Close()
			return fmt.Errorf("write csv row for %s: %w", node.URL, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("flush csv: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}

type graphDocument struct {
	Nodes []crawl.PageNode `json:"nodes"`
	Edges []crawl.LinkEdge `json:"edges"`
}

// WriteJSON writes the crawled_data.json node/edge graph.
func (w *Writer) WriteJSON(res crawl.Result) error {
	doc := graphDocument{
		Nodes: res.Nodes,
		Edges: res.Edges,
	}
	// Empty crawls still render as {"nodes": [], "edges": []}.
	if doc.Nodes == nil {
		doc.Nodes = []crawl.PageNode{}
	}
	if doc.Edges == nil {
		doc.Edges = []crawl.LinkEdge{}
	}
	payload, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal graph: %w", err)
	}
	path := filepath.Join(w.dir, JSONFileName)
	if err := os.WriteFile(path, payload, 0o600); err != nil {
		return fmt.Errorf("write graph %s: %w", path, err)
	}
	return nil
}

// LogSummary emits the crawl's closing numbers as structured logs.
func (w *Writer) LogSummary(res crawl.Result) {
	w.logger.Info("crawl summary",
		zap.String("run_id", res.RunID),
		zap.String("state", string(res.State)),
		zap.Duration("elapsed", res.Elapsed),
		zap.Int("visited", res.Visited),
		zap.Int("fetched", res.Fetched),
		zap.Int("failed", len(res.Failed)),
		zap.Int("edges", len(res.Edges)))

	for _, domain := range topDomains(res.Domains, 10) {
		w.logger.Info("domain visits",
			zap.String("domain", domain),
			zap.Int("count", res.Domains[domain]))
	}
	if len(res.KeywordHits) > 0 {
		w.logger.Info("keyword matches",
			zap.Int("pages", len(res.KeywordHits)),
			zap.Strings("urls", res.KeywordHits))
	}
	if res.LongestLen > 0 {
		w.logger.Info("longest link chain",
			zap.Int("length", res.LongestLen),
			zap.Strings("path", res.LongestPath))
	}
	for _, failed := range res.Failed {
		w.logger.Debug("failed url",
			zap.String("url", failed.URL),
			zap.String("reason", failed.Reason),
			zap.Bool("timeout", failed.Timeout))
	}
}

// topDomains returns up to n domains ordered by descending count, ties by
// name, so summary output is stable.
func topDomains(counts map[string]int, n int) []string {
	domains := make([]string, 0, len(counts))
	for domain := range counts {
		domains = append(domains, domain)
	}
	sort.Slice(domains, func(i, j int) bool {
		if counts[domains[i]] == counts[domains[j]] {
			return domains[i] < domains[j]
		}
		return counts[domains[i]] > counts[domains[j]]
	})
	if len(domains) > n {
		domains = domains[:n]
	}
	return domains
}
