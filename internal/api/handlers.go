package api

import (
	"net/http"
	"strings"

	"reelscript/internal/generator"
	"reelscript/internal/reel"
	"reelscript/internal/reelstore"
)

func (s *Server) handleAuto(w http.ResponseWriter, r *http.Request) {
	var req generator.AutoRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.gen.Auto(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req generator.SaveRequest
	if !s.decode(w, r, &req) {
		return
	}
	resp, err := s.gen.Save(r.Context(), req)
	if err != nil {
		s.writeJSON(w, errorStatus(err), resp)
		return
	}
	s.writeJSON(w, http.StatusOK, resp)
}

type savedResponse struct {
	Scripts []reelstore.SavedScript `json:"scripts"`
}

func (s *Server) handleSaved(w http.ResponseWriter, r *http.Request) {
	scripts, err := s.gen.Saved(r.Context(), r.URL.Query().Get("client_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if scripts == nil {
		scripts = []reelstore.SavedScript{}
	}
	s.writeJSON(w, http.StatusOK, savedResponse{Scripts: scripts})
}

type reelView struct {
	reel.Reel
	Engagement reel.EngagementStats `json:"engagement_stats"`
}

type reelsResponse struct {
	Reels []reelView `json:"reels"`
	Count int        `json:"count"`
}

func (s *Server) handleReels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	target := reel.TargetAudience{
		Age:      q.Get("age"),
		Gender:   q.Get("gender"),
		Interest: q.Get("interest"),
	}
	reels, err := s.gen.Reels(r.Context(), target)
	if err != nil {
		s.writeError(w, err)
		return
	}
	views := make([]reelView, 0, len(reels))
	for _, item := range reels {
		views = append(views, reelView{Reel: item, Engagement: s.weights.Stats(item)})
	}
	s.writeJSON(w, http.StatusOK, reelsResponse{Reels: views, Count: len(views)})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := s.gen.Settings(r.Context(), r.PathValue("client_id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var body generator.Settings
	if !s.decode(w, r, &body) {
		return
	}
	body.ClientID = strings.TrimSpace(r.PathValue("client_id"))
	saved, err := s.gen.SaveSettings(r.Context(), body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, saved)
}

type healthResponse struct {
	Status string           `json:"status"`
	Store  reelstore.Health `json:"store"`
	Error  string           `json:"error,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	health, err := s.health.CheckHealth(r.Context())
	if err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Store: health, Error: err.Error()})
		return
	}
	s.writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Store: health})
}
