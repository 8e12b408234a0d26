package amqp

import (
	"encoding/json"
	"time"
)

// ContributionPostedMessage tells the sync worker that a group's ledger
// changed. It carries only identifiers; the worker reads the current
// balance from the store itself.
type ContributionPostedMessage struct {
	GroupName      string    `json:"group_name"`
	ContributionID string    `json:"contribution_id"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewContributionPostedMessage(group, contributionID string) *ContributionPostedMessage {
	return &ContributionPostedMessage{
		GroupName:      group,
		ContributionID: contributionID,
		Timestamp:      time.Now(),
	}
}

func (m *ContributionPostedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ContributionPostedMessageFromJSON(data []byte) (*ContributionPostedMessage, error) {
	var msg ContributionPostedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
