package model

import "time"

// Difficulty levels shared by TryHackMe rooms and Hack The Box machines.
var Difficulties = []string{"Easy", "Medium", "Hard", "Insane"}

// Completion states shown on the public catalog.
const (
	StatusCompleted  = "Completed"
	StatusInProgress = "In Progress"
	StatusPlanned    = "Planned"
)

// Statuses lists every accepted completion state.
var Statuses = []string{StatusCompleted, StatusInProgress, StatusPlanned}

// Room is a TryHackMe room with an optional write-up. JSON keys follow the
// camelCase shape the site frontend reads and posts.
type Room struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Slug          string    `json:"slug"`
	Difficulty    string    `json:"difficulty"`
	Status        string    `json:"status"`
	Tags          []string  `json:"tags"`
	Writeup       *string   `json:"writeup"`
	URL           string    `json:"url"`
	RoomCode      string    `json:"roomCode"`
	Points        int       `json:"points"`
	DateCompleted *string   `json:"dateCompleted"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Machine is a Hack The Box machine with an optional write-up.
type Machine struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	OS            string    `json:"os"`
	Difficulty    string    `json:"difficulty"`
	Status        string    `json:"status"`
	IPAddress     string    `json:"ipAddress"`
	Points        int       `json:"points"`
	Tags          []string  `json:"tags"`
	Writeup       *string   `json:"writeup"`
	DateCompleted *string   `json:"dateCompleted"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// ContentFilter narrows room and machine listings.
type ContentFilter struct {
	Difficulty string
	Status     string
	Search     string
}

// ValidDifficulty reports whether d is an accepted difficulty.
func ValidDifficulty(d string) bool {
	return contains(Difficulties, d)
}

// ValidStatus reports whether s is an accepted completion state.
func ValidStatus(s string) bool {
	return contains(Statuses, s)
}

func contains(list []string, v string) bool {
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
