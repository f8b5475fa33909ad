package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"course-rag/internal/rag"
	"course-rag/internal/tools"
	"course-rag/pkg/api"
)

// Service exposes the RAG system over HTTP.
type Service struct {
	rag *rag.System
}

func NewService(system *rag.System) *Service {
	return &Service{rag: system}
}

func (s *Service) AddRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Post("/query", RestHandler(s.Query))
		r.Get("/courses", RestHandler(s.CourseStats))
		r.Route("/sessions/{session_id}", func(r chi.Router) {
			r.Get("/history", RestHandler(s.SessionHistory))
			r.Delete("/", RestHandler(s.ClearSession))
		})
	})
}

// Query answers a question about the course materials. A session is created
// when the request does not name one, and its id is echoed back so the
// client can continue the conversation.
func (s *Service) Query(r *http.Request) (any, error) {
	req, err := ParseRequest[api.QueryRequest](r)
	if err != nil {
		return nil, err
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = s.rag.Sessions().CreateSession()
	}

	answer, sources, err := s.rag.Query(r.Context(), req.Query, sessionID)
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error processing query: %v", err)
	}

	return api.QueryResponse{
		Answer:    answer,
		Sources:   convertSources(sources),
		SessionID: sessionID,
	}, nil
}

func (s *Service) CourseStats(r *http.Request) (any, error) {
	analytics, err := s.rag.Analytics(r.Context())
	if err != nil {
		return nil, CodedErrorf(http.StatusInternalServerError, "error loading course stats: %v", err)
	}

	return api.CourseStats{
		TotalCourses: analytics.TotalCourses,
		CourseTitles: analytics.CourseTitles,
	}, nil
}

func (s *Service) SessionHistory(r *http.Request) (any, error) {
	sessionID, err := URLParamSessionID(r, "session_id")
	if err != nil {
		return nil, err
	}

	params, err := ParseRequestQueryParams[api.HistoryParams](r)
	if err != nil {
		return nil, err
	}

	exchanges := s.rag.Sessions().Exchanges(sessionID, params.Limit)
	items := make([]api.HistoryItem, 0, len(exchanges))
	for _, ex := range exchanges {
		items = append(items, api.HistoryItem{Query: ex.Query, Answer: ex.Answer, At: ex.At})
	}

	return api.SessionHistoryResponse{SessionID: sessionID, Exchanges: items}, nil
}

func (s *Service) ClearSession(r *http.Request) (any, error) {
	sessionID, err := URLParamSessionID(r, "session_id")
	if err != nil {
		return nil, err
	}

	s.rag.Sessions().Clear(sessionID)
	return nil, nil
}

func convertSources(sources []tools.Source) []api.Source {
	out := make([]api.Source, 0, len(sources))
	for _, src := range sources {
		out = append(out, api.Source{Text: src.Text, Link: src.Link})
	}
	return out
}
