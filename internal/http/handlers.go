package http

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"tripsplit/internal/core"
	"tripsplit/internal/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func (s *Server) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	g, err := s.groups.Create(r.Context(), req.GroupName, req.Members, req.Secret, req.Destination)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to create group",
			log.FieldGroup, req.GroupName,
			log.FieldError, err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	slog.InfoContext(r.Context(), "Group created",
		log.FieldGroup, g.Name,
		"members", len(g.Members),
		log.FieldOperation, log.OpCreate)

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   fmt.Sprintf("group %s created", g.Name),
		"groupName": g.Name,
		"members":   g.Members,
	})
}

func (s *Server) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	g, err := s.groups.Get(r.Context(), name)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	// The secret hash never leaves the store.
	writeJSON(w, http.StatusOK, map[string]any{
		"groupName":   g.Name,
		"members":     g.Members,
		"destination": g.Destination,
	})
}

func (s *Server) handleVerifySecret(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	var req verifySecretRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.groups.VerifySecret(r.Context(), name, req.Secret); err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "ok"})
}

func (s *Server) handlePostContribution(w http.ResponseWriter, r *http.Request) {
	var req contributionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	c := req.toContribution()
	res, err := s.contributions.Post(r.Context(), c)
	if err != nil {
		slog.ErrorContext(r.Context(), "Failed to post contribution",
			log.FieldGroup, c.GroupName,
			log.FieldPayer, c.PayerName,
			log.FieldActivity, c.ActivityName,
			log.FieldSplitMode, string(c.Mode),
			log.FieldError, err)
		writeError(w, statusFor(err), err.Error())
		return
	}

	// A posted contribution changes the balance view.
	s.balanceCache.Delete(c.GroupName)

	slog.InfoContext(r.Context(), "Contribution posted",
		log.FieldGroup, c.GroupName,
		log.FieldPayer, c.PayerName,
		log.FieldActivity, c.ActivityName,
		log.FieldAmount, c.Amount,
		log.FieldSplitMode, string(res.Mode),
		log.FieldContributionID, res.ContributionID,
		log.FieldOperation, log.OpPost)

	resp := contributionResponse{
		ContributionID: res.ContributionID,
		SplitMode:      string(res.Mode),
		Members:        res.Members,
	}
	switch res.Mode {
	case core.SplitExplicit:
		resp.Message = "contribution recorded for listed friends"
	case core.SplitCustom:
		resp.Message = fmt.Sprintf("custom split posted for %s", c.GroupName)
	case core.SplitEqual:
		resp.Message = fmt.Sprintf("split %.2f between %d members", c.Amount, len(res.Members))
		resp.PerPersonAmount = res.PerPerson
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTripSummary(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	sum, err := s.summaries.TripSummary(r.Context(), name)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toSummaryResponse(sum))
}

func (s *Server) handleGroupBalance(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	if cached, ok := s.balanceCache.Get(name); ok {
		writeJSON(w, http.StatusOK, toBalanceResponse(cached))
		return
	}

	bal, err := s.summaries.GroupBalance(r.Context(), name)
	if err != nil {
		writeError(w, statusFor(err), err.Error())
		return
	}

	s.balanceCache.Set(name, bal)
	writeJSON(w, http.StatusOK, toBalanceResponse(bal))
}
