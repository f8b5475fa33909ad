// Package api holds the request and response shapes of the HTTP API.
package api

import "time"

type QueryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id,omitempty"`
}

type Source struct {
	Text string `json:"text"`
	Link string `json:"link,omitempty"`
}

type QueryResponse struct {
	Answer    string   `json:"answer"`
	Sources   []Source `json:"sources"`
	SessionID string   `json:"session_id"`
}

type CourseStats struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

type HistoryParams struct {
	Limit int `schema:"limit"`
}

type HistoryItem struct {
	Query  string    `json:"query"`
	Answer string    `json:"answer"`
	At     time.Time `json:"at"`
}

type SessionHistoryResponse struct {
	SessionID string        `json:"session_id"`
	Exchanges []HistoryItem `json:"exchanges"`
}
