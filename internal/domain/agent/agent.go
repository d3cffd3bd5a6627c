package agent

import (
	"time"

	"github.com/google/uuid"
)

// Agent is an autonomous inhabitant of the world. Each agent carries a
// free-text persona used for dialogue grounding and a ledger account for the
// resource economy. The private key never leaves the server.
type Agent struct {
	ID              uuid.UUID `json:"id"`
	DialogueAgentID string    `json:"dialogue_agent_id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	PosX            float64   `json:"pos_x"`
	PosY            float64   `json:"pos_y"`
	Address         string    `json:"address"`
	PublicKey       string    `json:"public_key"`
	PrivateKey      string    `json:"-"`
	CreatedAt       time.Time `json:"created_at"`
}
