package domain

import "strings"

// State is a ticket workflow state.
type State struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Priority is a ticket priority level.
type Priority struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// ArticleType identifies the channel an article was created through.
type ArticleType struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Normalize lower-cases and trims a reference name for matching.
func Normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
