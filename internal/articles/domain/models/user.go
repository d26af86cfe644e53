package models

import "time"

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	FirstName    string    `json:"first_name"` //nolint:tagliatelle
	LastName     string    `json:"last_name"`  //nolint:tagliatelle
	PasswordHash string    `json:"-"`
	Superuser    bool      `json:"is_superuser"` //nolint:tagliatelle
	DateJoined   time.Time `json:"date_joined"`  //nolint:tagliatelle
}
