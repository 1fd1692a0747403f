package api

import (
	"fmt"
	"strconv"
	"strings"

	"film-community/backend/internal/graph"
)

// MovieDTO is a catalog entry with genres joined by "|"
type MovieDTO struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Year   *int64 `json:"year"`
	Genres string `json:"genres"`
}

// LikedMovieDTO is a catalog entry with the user's rating
type LikedMovieDTO struct {
	MovieDTO
	Rating float64 `json:"rating"`
}

// UserDTO is a user search hit
type UserDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	RatingCount int64  `json:"rating_count"`
}

func toMovieDTO(m graph.Movie) MovieDTO {
	return MovieDTO{
		ID:     strconv.FormatInt(m.ID, 10),
		Title:  m.Title,
		Year:   m.Year,
		Genres: strings.Join(m.Genres, "|"),
	}
}

func toMovieDTOs(movies []graph.Movie) []MovieDTO {
	out := make([]MovieDTO, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieDTO(m))
	}
	return out
}

func toLikedMovieDTOs(movies []graph.LikedMovie) []LikedMovieDTO {
	out := make([]LikedMovieDTO, 0, len(movies))
	for _, m := range movies {
		out = append(out, LikedMovieDTO{MovieDTO: toMovieDTO(m.Movie), Rating: m.Rating})
	}
	return out
}

func toUserDTOs(users []graph.UserSummary) []UserDTO {
	out := make([]UserDTO, 0, len(users))
	for _, u := range users {
		out = append(out, UserDTO{
			ID:          strconv.FormatInt(u.ID, 10),
			Name:        fmt.Sprintf("User %d", u.ID),
			RatingCount: u.RatingCount,
		})
	}
	return out
}
