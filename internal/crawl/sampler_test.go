package crawl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSampleLinks(t *testing.T) {
	t.Parallel()

	links := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	t.Run("zero admits nothing", func(t *testing.T) {
		require.Nil(t, SampleLinks(links, 0))
	})
	t.Run("hundred admits everything", func(t *testing.T) {
		require.Equal(t, links, SampleLinks(links, 100))
	})
	t.Run("keeps prefix in document order", func(t *testing.T) {
		require.Equal(t, []string{"a", "b", "c"}, SampleLinks(links, 30))
	})
	t.Run("floors fractional counts", func(t *testing.T) {
		require.Equal(t, []string{"a"}, SampleLinks(links[:3], 50), "3*50/100 floors to 1")
	})
	t.Run("small batch at low percentage keeps none", func(t *testing.T) {
		require.Nil(t, SampleLinks(links[:4], 10))
	})
	t.Run("empty input", func(t *testing.T) {
		require.Nil(t, SampleLinks(nil, 100))
	})
	t.Run("out of range clamps", func(t *testing.T) {
		require.Nil(t, SampleLinks(links, -5))
		require.Equal(t, links, SampleLinks(links, 250))
	})
}
