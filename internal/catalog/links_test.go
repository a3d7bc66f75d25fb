package catalog

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const linksCSV = `movieId,imdbId,tmdbId
1,0114709,862
2,0113497,8844
3,0113228,15602
4,0114885,
bogus,0000000,123
`

func TestReadLinks(t *testing.T) {
	links, err := readLinks(strings.NewReader(linksCSV))
	require.NoError(t, err)

	// rows with a missing tmdbId or an unparseable movieId are skipped
	require.Equal(t, 3, links.Len())

	ml, ok := links.ToCanonical(862)
	require.True(t, ok)
	require.Equal(t, int64(1), ml)

	tmdb, ok := links.ToTmdb(2)
	require.True(t, ok)
	require.Equal(t, int64(8844), tmdb)

	_, ok = links.ToCanonical(999999)
	require.False(t, ok)
}

func TestReadLinksEmptyBody(t *testing.T) {
	links, err := readLinks(strings.NewReader("movieId,imdbId,tmdbId\n"))
	require.NoError(t, err)
	require.Equal(t, 0, links.Len())
}
