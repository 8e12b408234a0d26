// Package http provides the JSON API over the splitter and aggregator.
//
// This file parses inbound payloads. Amounts may arrive as JSON numbers
// or as decimal strings; share entries with unparseable amounts are
// carried through as NaN so the splitter can skip them per entry
// instead of rejecting the whole request.
package http

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"tripsplit/internal/core"
)

// flexAmount decodes a JSON number or a decimal string ("12.34" or
// "12,34"). Garbage decodes to NaN rather than an error.
type flexAmount float64

func (a *flexAmount) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if len(s) >= 2 && s[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			*a = flexAmount(math.NaN())
			return nil
		}
		s = strings.ReplaceAll(strings.TrimSpace(str), ",", ".")
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		*a = flexAmount(math.NaN())
		return nil
	}
	*a = flexAmount(v)
	return nil
}

type shareEntry struct {
	Name   string     `json:"name"`
	Amount flexAmount `json:"amount"`
}

type contributionRequest struct {
	PayerName       string       `json:"payerName"`
	Amount          flexAmount   `json:"amount"`
	ActivityName    string       `json:"activityName"`
	GroupName       string       `json:"groupName"`
	SelectedFriends []shareEntry `json:"selectedFriends"`
	CustomSplit     []shareEntry `json:"customSplit"`
}

type createGroupRequest struct {
	GroupName   string   `json:"groupName"`
	Members     []string `json:"members"`
	Secret      string   `json:"secret"`
	Destination string   `json:"destination"`
}

type verifySecretRequest struct {
	Secret string `json:"secret"`
}

// maxBodyBytes bounds request bodies; payloads here are small.
const maxBodyBytes = 1 << 20

func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(body) == 0 {
		return fmt.Errorf("empty body")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("parse json: %w", err)
	}
	return nil
}

func toShares(entries []shareEntry) []core.Share {
	if len(entries) == 0 {
		return nil
	}
	shares := make([]core.Share, 0, len(entries))
	for _, e := range entries {
		shares = append(shares, core.Share{Name: strings.TrimSpace(e.Name), Amount: float64(e.Amount)})
	}
	return shares
}

// toContribution resolves the tagged split mode from which list is
// populated, explicit winning over custom.
func (req contributionRequest) toContribution() core.Contribution {
	selected := toShares(req.SelectedFriends)
	custom := toShares(req.CustomSplit)

	c := core.Contribution{
		PayerName:    strings.TrimSpace(req.PayerName),
		Amount:       float64(req.Amount),
		ActivityName: strings.TrimSpace(req.ActivityName),
		GroupName:    strings.TrimSpace(req.GroupName),
		Mode:         core.ResolveMode(selected, custom),
	}
	switch c.Mode {
	case core.SplitExplicit:
		c.Shares = selected
	case core.SplitCustom:
		c.Shares = custom
	}
	return c
}
