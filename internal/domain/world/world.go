package world

import (
	"time"

	"github.com/google/uuid"

	"ledgerworld/internal/domain/geo"
)

// Item is a world-positioned object: scenery, a collectible, or the display
// projection of an on-chain generator. Generator projections are keyed
// "gen_<objectID>" and are upserted by reconciliation; the ledger, not this
// record, stays the source of truth for their state.
type Item struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Position    geo.Position `json:"position"`
	Sprite      Sprite       `json:"sprite"`
	Interactive bool         `json:"interactive"`
	CollectedBy string       `json:"collected_by,omitempty"`
	CollectedAt *time.Time   `json:"collected_at,omitempty"`
}

// Sprite describes how the client draws an item: a static image or a
// frame-animated strip.
type Sprite struct {
	Image       string `json:"image"`
	Frames      int    `json:"frames,omitempty"`
	FrameRateMS int    `json:"frame_rate_ms,omitempty"`
}

// AgentPresence is the live in-world view of an agent kept by the world
// store. The agent registry in postgres remains authoritative; this mirror
// exists for range queries and broadcasts.
type AgentPresence struct {
	ID          uuid.UUID    `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Address     string       `json:"address"`
	Position    geo.Position `json:"position"`
}

// PlayerData is a human player as the player directory reports it: last
// known position plus optional ledger-address metadata.
type PlayerData struct {
	ID            uuid.UUID    `json:"id"`
	Name          string       `json:"name"`
	Position      geo.Position `json:"position"`
	LedgerAddress string       `json:"ledger_address,omitempty"`
}

// Summary carries the world-level counts used by the briefing's world
// summary section.
type Summary struct {
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	AgentCount int     `json:"agent_count"`
	ItemCount  int     `json:"item_count"`
}

// State is the full snapshot returned by the read-only world endpoint.
type State struct {
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Agents []AgentPresence `json:"agents"`
	Items  []Item          `json:"items"`
}
