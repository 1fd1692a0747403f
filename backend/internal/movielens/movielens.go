// Package movielens reads the MovieLens "latest-small" CSV files
// (movies.csv, ratings.csv, tags.csv) in batches for the graph importer.
package movielens

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	apperrors "film-community/backend/pkg/errors"
)

const noGenres = "(no genres listed)"

var titleYear = regexp.MustCompile(`^(.*?)\s*\((\d{4})\)\s*$`)

// Movie is one row of movies.csv
type Movie struct {
	ID     int64
	Title  string
	Year   *int64
	Genres []string
}

// Rating is one row of ratings.csv
type Rating struct {
	UserID    int64
	MovieID   int64
	Rating    float64
	Timestamp int64
}

// Tag is one row of tags.csv
type Tag struct {
	UserID    int64
	MovieID   int64
	Tag       string
	Timestamp int64
}

// ParseTitle splits "Toy Story (1995)" into its title and year. Titles
// without a trailing four-digit year come back unchanged with a nil year.
func ParseTitle(raw string) (string, *int64) {
	m := titleYear.FindStringSubmatch(raw)
	if m == nil {
		return strings.TrimSpace(raw), nil
	}
	year, err := strconv.ParseInt(m[2], 10, 64)
	if err != nil {
		return strings.TrimSpace(raw), nil
	}
	return strings.TrimSpace(m[1]), &year
}

// ParseGenres splits the pipe-separated genre column
func ParseGenres(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || raw == noGenres {
		return []string{}
	}
	parts := strings.Split(raw, "|")
	genres := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			genres = append(genres, p)
		}
	}
	return genres
}

// ReadMovies streams movies.csv to fn in batches of batchSize
func ReadMovies(r io.Reader, name string, batchSize int, fn func([]Movie) error) (int, error) {
	return readBatches(r, name, batchSize, 3, func(row []string) (Movie, error) {
		id, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return Movie{}, err
		}
		title, year := ParseTitle(row[1])
		return Movie{ID: id, Title: title, Year: year, Genres: ParseGenres(row[2])}, nil
	}, fn)
}

// ReadRatings streams ratings.csv to fn in batches of batchSize
func ReadRatings(r io.Reader, name string, batchSize int, fn func([]Rating) error) (int, error) {
	return readBatches(r, name, batchSize, 4, func(row []string) (Rating, error) {
		userID, movieID, ts, err := parseKeys(row[0], row[1], row[3])
		if err != nil {
			return Rating{}, err
		}
		rating, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return Rating{}, err
		}
		return Rating{UserID: userID, MovieID: movieID, Rating: rating, Timestamp: ts}, nil
	}, fn)
}

// ReadTags streams tags.csv to fn in batches of batchSize
func ReadTags(r io.Reader, name string, batchSize int, fn func([]Tag) error) (int, error) {
	return readBatches(r, name, batchSize, 4, func(row []string) (Tag, error) {
		userID, movieID, ts, err := parseKeys(row[0], row[1], row[3])
		if err != nil {
			return Tag{}, err
		}
		return Tag{UserID: userID, MovieID: movieID, Tag: row[2], Timestamp: ts}, nil
	}, fn)
}

func parseKeys(user, movie, timestamp string) (int64, int64, int64, error) {
	userID, err := strconv.ParseInt(user, 10, 64)
	if err != nil {
		return 0, 0, 0, err
	}
	movieID, err := strconv.ParseInt(movie, 10, 64)
	if err != nil {
		return 0, 0, 0, err
	}
	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return 0, 0, 0, err
	}
	return userID, movieID, ts, nil
}

// readBatches skips the header row and hands parsed rows to fn batchSize at a time
func readBatches[T any](r io.Reader, name string, batchSize, columns int, parse func([]string) (T, error), fn func([]T) error) (int, error) {
	if batchSize <= 0 {
		return 0, fmt.Errorf("batch size must be positive, got %d", batchSize)
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = columns
	reader.ReuseRecord = true

	if _, err := reader.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return 0, nil
		}
		return 0, apperrors.NewImportMalformedRow(name, 1, err)
	}

	total := 0
	line := 1
	batch := make([]T, 0, batchSize)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return total, apperrors.NewImportMalformedRow(name, line, err)
		}
		item, err := parse(row)
		if err != nil {
			return total, apperrors.NewImportMalformedRow(name, line, err)
		}
		batch = append(batch, item)
		if len(batch) == batchSize {
			if err := fn(batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = make([]T, 0, batchSize)
		}
	}

	if len(batch) > 0 {
		if err := fn(batch); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}
