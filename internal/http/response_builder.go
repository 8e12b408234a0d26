package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tripsplit/internal/core"
)

// Response DTOs. The balance view keeps the wire names its existing
// consumers expect, capitalization quirks included.
type (
	memberBriefJSON struct {
		Name               string  `json:"name"`
		LatestActivityName string  `json:"latestActivityName"`
		TotalPaid          float64 `json:"totalPaid"`
	}

	balanceResponse struct {
		GroupName   string            `json:"groupName"`
		Friends     []string          `json:"friends"`
		TotalAmount float64           `json:"TotalAmount"`
		FullBalance []memberBriefJSON `json:"fullbalance"`
	}

	debtEdgeJSON struct {
		Name         string  `json:"name"`
		Amount       float64 `json:"amount"`
		ActivityName string  `json:"activityName"`
	}

	activityJSON struct {
		ActivityName string    `json:"activityName"`
		Amount       float64   `json:"amount"`
		Timestamp    time.Time `json:"timestamp"`
	}

	memberSummaryJSON struct {
		Name               string         `json:"name"`
		TotalPaid          float64        `json:"totalPaid"`
		TotalOwed          float64        `json:"totalOwed"`
		GivesTo            []debtEdgeJSON `json:"givesTo"`
		GetsFrom           []debtEdgeJSON `json:"getsFrom"`
		LatestActivityName string         `json:"latestActivityName"`
		Activities         []activityJSON `json:"activities"`
	}

	summaryResponse struct {
		TotalTripBudget float64             `json:"totalTripBudget"`
		Members         []memberSummaryJSON `json:"members"`
	}

	contributionResponse struct {
		Message         string   `json:"message"`
		ContributionID  string   `json:"contributionId"`
		SplitMode       string   `json:"splitMode"`
		Members         []string `json:"members,omitempty"`
		PerPersonAmount float64  `json:"perPersonAmount,omitempty"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

func toEdgesJSON(edges []core.DebtEdge) []debtEdgeJSON {
	out := make([]debtEdgeJSON, 0, len(edges))
	for _, e := range edges {
		out = append(out, debtEdgeJSON{Name: e.Counterparty, Amount: e.Amount, ActivityName: e.Activity})
	}
	return out
}

func toActivitiesJSON(activities []core.Activity) []activityJSON {
	out := make([]activityJSON, 0, len(activities))
	for _, a := range activities {
		out = append(out, activityJSON{ActivityName: a.Label, Amount: a.Amount, Timestamp: a.Timestamp})
	}
	return out
}

func toSummaryResponse(s core.TripSummary) summaryResponse {
	resp := summaryResponse{
		TotalTripBudget: s.TotalTripBudget,
		Members:         make([]memberSummaryJSON, 0, len(s.Members)),
	}
	for _, m := range s.Members {
		resp.Members = append(resp.Members, memberSummaryJSON{
			Name:               m.Name,
			TotalPaid:          m.TotalPaid,
			TotalOwed:          m.TotalOwed,
			GivesTo:            toEdgesJSON(m.GivesTo),
			GetsFrom:           toEdgesJSON(m.GetsFrom),
			LatestActivityName: m.LatestActivityName,
			Activities:         toActivitiesJSON(m.Activities),
		})
	}
	return resp
}

func toBalanceResponse(b core.GroupBalance) balanceResponse {
	resp := balanceResponse{
		GroupName:   b.GroupName,
		Friends:     b.Members,
		TotalAmount: b.TotalAmount,
		FullBalance: make([]memberBriefJSON, 0, len(b.PerMember)),
	}
	for _, m := range b.PerMember {
		resp.FullBalance = append(resp.FullBalance, memberBriefJSON{
			Name:               m.Name,
			LatestActivityName: m.LatestActivityName,
			TotalPaid:          m.TotalPaid,
		})
	}
	return resp
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps core errors onto HTTP statuses: missing things are
// 404, bad input is 422, conflicts 409, a wrong secret 401, anything
// else is a persistence failure.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrGroupNotFound), errors.Is(err, core.ErrNoLedgerData):
		return http.StatusNotFound
	case errors.Is(err, core.ErrGroupExists):
		return http.StatusConflict
	case errors.Is(err, core.ErrSecretMismatch):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrEmptyPayer),
		errors.Is(err, core.ErrEmptyActivity),
		errors.Is(err, core.ErrEmptyGroupName),
		errors.Is(err, core.ErrNoMembers),
		errors.Is(err, core.ErrEmptySecret),
		errors.Is(err, core.ErrNoParticipants):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
