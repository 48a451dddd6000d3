package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/colonyops/qcdash/internal/core/milestone"
	"github.com/colonyops/qcdash/internal/core/selection"
	"github.com/colonyops/qcdash/internal/dashboard"
	"github.com/colonyops/qcdash/internal/tracker"
)

type openRequest struct {
	Number int            `json:"number"`
	Mode   selection.Mode `json:"mode"`
}

type commentRequest struct {
	Comment string `json:"comment"`
}

type milestonesResponse struct {
	Milestones []milestoneView `json:"milestones"`
}

type milestoneView struct {
	milestone.Report
	Health milestone.Health `json:"health"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC(),
		"service":   "qcdash",
	})
}

func (s *Server) milestoneStatus(w http.ResponseWriter, r *http.Request) {
	names, include, err := s.milestoneQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reports := s.svc.MilestoneReports(r.Context(), names, include)

	resp := milestonesResponse{Milestones: make([]milestoneView, len(reports))}
	for i, rep := range reports {
		resp.Milestones[i] = milestoneView{Report: rep, Health: rep.Health()}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) milestoneGate(w http.ResponseWriter, r *http.Request) {
	names, include, err := s.milestoneQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, s.svc.Gate(r.Context(), names, include))
}

// milestoneQuery reads ?milestone=a&milestone=b&scope=all, falling back to
// the configured names and scope.
func (s *Server) milestoneQuery(r *http.Request) ([]string, milestone.Inclusion, error) {
	cfg := s.milestones

	if names := r.URL.Query()["milestone"]; len(names) > 0 {
		cfg.Names = names
	}
	if scope := r.URL.Query().Get("scope"); scope != "" {
		cfg.Scope = milestone.Scope(scope)
		if !cfg.Scope.IsValid() {
			return nil, nil, fmt.Errorf("scope must be open or all, got %q", scope)
		}
	}
	if len(cfg.Names) == 0 {
		return nil, nil, errors.New("no milestones requested")
	}

	return cfg.Names, cfg.Inclusion(), nil
}

// issueStatus answers with the issue's status result. A per-issue failure is
// still a 200 with the failure set; only transport errors map to an error code.
func (s *Server) issueStatus(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid issue number: %w", err))
		return
	}

	o := s.svc.IssueStatus(r.Context(), number)
	if o.Err != nil {
		writeError(w, statusFor(o.Err), o.Err)
		return
	}
	writeJSON(w, http.StatusOK, o.Result)
}

func (s *Server) unapprove(w http.ResponseWriter, r *http.Request) {
	number, err := strconv.Atoi(chi.URLParam(r, "number"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid issue number: %w", err))
		return
	}

	var req commentRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	res, err := s.svc.Unapprove(r.Context(), number, req.Comment)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) currentReview(w http.ResponseWriter, r *http.Request) {
	v, err := s.desk.Current()
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) openReview(w http.ResponseWriter, r *http.Request) {
	var req openRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}
	if req.Number <= 0 {
		writeError(w, http.StatusBadRequest, errors.New("number is required"))
		return
	}

	v, err := s.desk.Open(r.Context(), req.Number, req.Mode)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) updateReview(w http.ResponseWriter, r *http.Request) {
	var p dashboard.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return
	}

	v, err := s.desk.Update(p)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) closeReview(w http.ResponseWriter, r *http.Request) {
	s.desk.Close()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) refreshReview(w http.ResponseWriter, r *http.Request) {
	v, err := s.desk.Refresh(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) previewReview(w http.ResponseWriter, r *http.Request) {
	md, err := s.desk.Preview(r.Context())
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"markdown": md})
}

func (s *Server) postReview(w http.ResponseWriter, r *http.Request) {
	var req commentRequest
	if !decodeOptional(w, r, &req) {
		return
	}

	res, err := s.desk.Post(r.Context(), req.Comment)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var apiErr *tracker.APIError
	switch {
	case errors.Is(err, dashboard.ErrNoSession):
		return http.StatusNotFound
	case errors.Is(err, dashboard.ErrSuperseded):
		return http.StatusConflict
	case errors.Is(err, selection.ErrUnknownMode), errors.Is(err, tracker.ErrUnknownAction),
		errors.Is(err, dashboard.ErrIncompleteRange):
		return http.StatusBadRequest
	case tracker.IsNotFound(err):
		return http.StatusNotFound
	case errors.As(err, &apiErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// decodeOptional decodes a JSON body when one is present.
func decodeOptional(w http.ResponseWriter, r *http.Request, v any) bool {
	if r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("decode request: %w", err))
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]string{"error": err.Error()})
}
