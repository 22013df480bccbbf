package queue

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// CampaignJob asks a worker to dispatch an already created campaign.
type CampaignJob struct {
	CampaignID  uuid.UUID            `json:"campaign_id"`
	UserID      uuid.UUID            `json:"user_id"`
	SenderName  string               `json:"sender_name"`
	Subject     string               `json:"subject"`
	Body        string               `json:"body"`
	CardIDs     []uuid.UUID          `json:"card_ids"`
	CustomNotes map[uuid.UUID]string `json:"custom_notes,omitempty"`
}

func (j CampaignJob) Encode() ([]byte, error) {
	return json.Marshal(j)
}

func DecodeCampaignJob(b []byte) (CampaignJob, error) {
	var j CampaignJob
	if err := json.Unmarshal(b, &j); err != nil {
		return j, fmt.Errorf("decode campaign job: %w", err)
	}
	if j.CampaignID == uuid.Nil || j.UserID == uuid.Nil {
		return j, fmt.Errorf("decode campaign job: missing campaign or user id")
	}
	return j, nil
}
