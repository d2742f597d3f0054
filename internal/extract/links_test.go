package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractResolvesAndFilters(t *testing.T) {
	t.Parallel()

	body := []byte(`<html><body>
		<a href="/relative/page">rel</a>
		<a href="https://other.example/abs">abs</a>
		<a href="sibling">sib</a>
		<a href="#top">frag</a>
		<a href="mailto:team@example.com">mail</a>
		<a href="javascript:void(0)">js</a>
		<a href=" https://spaced.example/ ">spaced</a>
		<a>no href</a>
	</body></html>`)

	links, err := New().Extract("https://example.com/dir/index.html", body)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://example.com/relative/page",
		"https://other.example/abs",
		"https://example.com/dir/sibling",
		"https://spaced.example/",
	}, links)
}

func TestExtractKeepsDocumentOrderAndDuplicates(t *testing.T) {
	t.Parallel()

	body := []byte(`<html><body>
		<a href="https://a.example/">first</a>
		<a href="https://b.example/">second</a>
		<a href="https://a.example/">first again</a>
	</body></html>`)

	links, err := New().Extract("https://example.com/", body)
	require.NoError(t, err)
	require.Equal(t, []string{
		"https://a.example/",
		"https://b.example/",
		"https://a.example/",
	}, links, "dedup happens downstream, not here")
}

func TestExtractEmptyAndBadInput(t *testing.T) {
	t.Parallel()

	links, err := New().Extract("https://example.com/", nil)
	require.NoError(t, err)
	require.Empty(t, links)

	_, err = New().Extract("://notaurl", []byte("<a href='/x'>x</a>"))
	require.Error(t, err)

	// Plain text parses as a bare document with no anchors.
	links, err = New().Extract("https://example.com/", []byte("just words"))
	require.NoError(t, err)
	require.Empty(t, links)
}
