package crawl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// LoadSeeds assembles the normalized seed list from an optional single URL
// and an optional seed file. File format: one URL per line, blank lines and
// "#" comments skipped, "-" reads stdin. Schemeless seeds default to https.
// Lines that still fail normalization are skipped; the load fails with a
// *ConfigError when no valid seed remains.
func LoadSeeds(singleURL, filePath string, stdin io.Reader) ([]string, error) {
	var raw []string
	if strings.TrimSpace(singleURL) != "" {
		raw = append(raw, singleURL)
	}
	if filePath != "" {
		lines, err := readSeedLines(filePath, stdin)
		if err != nil {
			return nil, err
		}
		raw = append(raw, lines...)
	}
	if len(raw) == 0 {
		return nil, &ConfigError{Field: "url", Reason: "no seed URL given: pass --url or --url-file"}
	}

	seen := make(map[string]struct{}, len(raw))
	seeds := make([]string, 0, len(raw))
	invalid := 0
	for _, r := range raw {
		key, err := Normalize(EnsureScheme(r))
		if err != nil {
			invalid++
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		seeds = append(seeds, key)
	}
	if len(seeds) == 0 {
		return nil, &ConfigError{Field: "url", Reason: fmt.Sprintf("all %d seed URLs are invalid", invalid)}
	}
	return seeds, nil
}

func readSeedLines(filePath string, stdin io.Reader) ([]string, error) {
	var r io.Reader
	if filePath == "-" {
		if stdin == nil {
			stdin = os.Stdin
		}
		r = stdin
	} else {
		f, err := os.Open(filePath)
		if err != nil {
			return nil, &ConfigError{Field: "url-file", Reason: fmt.Sprintf("open %s: %v", filePath, err)}
		}
		defer f.Close()
		r = f
	}

	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, &ConfigError{Field: "url-file", Reason: fmt.Sprintf("read %s: %v", filePath, err)}
	}
	if len(lines) == 0 {
		return nil, &ConfigError{Field: "url-file", Reason: fmt.Sprintf("%s contains no seed URLs", filePath)}
	}
	return lines, nil
}
