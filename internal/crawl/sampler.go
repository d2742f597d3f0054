package crawl

// SampleLinks reduces one page's extracted links to the configured
// percentage, keeping the first len(links)*percentage/100 entries in document
// order (integer floor). Sampling is per page: every batch is cut
// independently, before deduplication. 0 admits nothing, 100 admits all.
func SampleLinks(links []string, percentage int) []string {
	if percentage <= 0 || len(links) == 0 {
		return nil
	}
	if percentage >= 100 {
		return links
	}
	keep := len(links) * percentage / 100
	if keep == 0 {
		return nil
	}
	return links[:keep]
}
