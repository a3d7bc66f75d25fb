package catalog

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Links is the static TMDb<->MovieLens reference mapping, loaded once at
// startup from links.csv and read-only afterwards. It is injected into the
// Resolver instead of living as a package-level side effect so resolution
// stays testable without filesystem access.
type Links struct {
	tmdbToMl map[int64]int64
	mlToTmdb map[int64]int64
}

// NewLinks builds a Links table from ml->tmdb pairs.
func NewLinks(mlToTmdb map[int64]int64) *Links {
	l := &Links{
		tmdbToMl: make(map[int64]int64, len(mlToTmdb)),
		mlToTmdb: make(map[int64]int64, len(mlToTmdb)),
	}
	for ml, tmdb := range mlToTmdb {
		l.mlToTmdb[ml] = tmdb
		l.tmdbToMl[tmdb] = ml
	}
	return l
}

// LoadLinks reads a MovieLens links.csv (movieId,imdbId,tmdbId with header)
// and returns the mapping table. Rows with unparseable ids are skipped.
func LoadLinks(path string) (*Links, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: opening links file: %w", err)
	}
	defer f.Close()

	return readLinks(f)
}

func readLinks(r io.Reader) (*Links, error) {
	reader := csv.NewReader(bufio.NewReader(r))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("catalog: reading links header: %w", err)
	}

	mlCol, tmdbCol := 0, 2
	for i, name := range header {
		switch name {
		case "movieId":
			mlCol = i
		case "tmdbId":
			tmdbCol = i
		}
	}

	pairs := make(map[int64]int64, 1024)
	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("catalog: reading links record: %w", err)
		}
		if len(rec) <= mlCol || len(rec) <= tmdbCol {
			continue
		}

		ml, err := strconv.ParseInt(rec[mlCol], 10, 64)
		if err != nil {
			continue
		}
		tmdb, err := strconv.ParseInt(rec[tmdbCol], 10, 64)
		if err != nil {
			continue
		}
		pairs[ml] = tmdb
	}

	return NewLinks(pairs), nil
}

// ToCanonical maps a TMDb id to its MovieLens id.
func (l *Links) ToCanonical(tmdbID int64) (int64, bool) {
	ml, ok := l.tmdbToMl[tmdbID]
	return ml, ok
}

// ToTmdb maps a MovieLens id back to its TMDb id.
func (l *Links) ToTmdb(mlID int64) (int64, bool) {
	tmdb, ok := l.mlToTmdb[mlID]
	return tmdb, ok
}

// Len reports how many mappings are loaded.
func (l *Links) Len() int {
	return len(l.mlToTmdb)
}
