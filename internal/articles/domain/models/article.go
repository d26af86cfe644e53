package models

import (
	"time"
)

// DateLayout is the wire and CSV format of publication dates.
const DateLayout = "2006-01-02"

type Article struct {
	ID              int64     `json:"id"`
	Identifier      string    `json:"identifier"`
	Title           string    `json:"title"`
	Abstract        string    `json:"abstract"`
	PublicationDate time.Time `json:"publication_date"` //nolint:tagliatelle
	OwnerID         int64     `json:"owner_id"`         //nolint:tagliatelle
	Owner           string    `json:"owner"`
	Authors         []string  `json:"author_names"` //nolint:tagliatelle
	Tags            []string  `json:"tag_names"`    //nolint:tagliatelle
	Comments        []Comment `json:"comments"`
}
