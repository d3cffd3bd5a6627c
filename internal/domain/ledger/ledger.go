// Package ledger defines the on-chain economy types as the gateway reports
// them. The application never mutates these locally; balances and generator
// state change only through ledger entry calls and are re-read afterwards.
package ledger

import "strings"

// UnclaimedOwner is the sentinel address the ledger assigns to generators
// nobody has claimed yet.
const UnclaimedOwner = "0x0"

type ResourceKind string

const (
	ResourceWood    ResourceKind = "wood"
	ResourceStone   ResourceKind = "stone"
	ResourceEmerald ResourceKind = "emerald"
)

// ResourceSet is a triple of fungible counters, used both for balances and
// for trade offer/request legs.
type ResourceSet struct {
	Wood    uint64 `json:"wood"`
	Stone   uint64 `json:"stone"`
	Emerald uint64 `json:"emerald"`
}

func (r ResourceSet) IsZero() bool {
	return r.Wood == 0 && r.Stone == 0 && r.Emerald == 0
}

// Resources is the per-account balance record, scoped to one match.
type Resources struct {
	Owner    string      `json:"owner"`
	MatchID  string      `json:"match_id"`
	Balances ResourceSet `json:"balances"`
}

// Generator is a world-positioned resource-production site owned by the
// ledger. Unclaimed generators accrue nothing; after any claim or recapture
// settles, Unclaimed never exceeds MaxCap.
type Generator struct {
	ObjectID          string       `json:"object_id"`
	MatchID           string       `json:"match_id"`
	Kind              ResourceKind `json:"kind"`
	X                 int          `json:"x"`
	Y                 int          `json:"y"`
	Owner             string       `json:"owner"`
	Level             uint8        `json:"level"`
	Rate              uint64       `json:"rate"`
	MaxCap            uint64       `json:"max_cap"`
	Unclaimed         uint64       `json:"unclaimed"`
	LastClaimMS       int64        `json:"last_claim_ms"`
	LastRecaptureBy   string       `json:"last_recapture_by,omitempty"`
	LastRecaptureFrom string       `json:"last_recapture_from,omitempty"`
}

func (g Generator) Claimed() bool {
	return g.Owner != "" && g.Owner != UnclaimedOwner
}

func (g Generator) OwnedBy(addr string) bool {
	return g.Claimed() && strings.EqualFold(g.Owner, addr)
}

// TradeProposal is a pending two-party, all-or-nothing exchange. It is
// destroyed by accept (atomic transfer) or cancel (no transfer); there is no
// partial acceptance or counter-offer.
type TradeProposal struct {
	ObjectID string      `json:"object_id"`
	MatchID  string      `json:"match_id"`
	Proposer string      `json:"proposer"`
	Target   string      `json:"target"`
	Offer    ResourceSet `json:"offer"`
	Request  ResourceSet `json:"request"`
}

// Match is one play-session's economy scope. Participants is the declared
// address list used to enumerate match-scoped objects.
type Match struct {
	ObjectID     string   `json:"object_id"`
	Creator      string   `json:"creator"`
	Participants []string `json:"participants"`
}

// Account is a ledger keypair registered for an agent or player. The private
// key stays server-side and must never be serialized outward.
type Account struct {
	Address    string `json:"address"`
	PublicKey  string `json:"public_key"`
	PrivateKey string `json:"-"`
}

// AddrPrefix returns the short display form of an address (0x + first 8 hex
// chars), used consistently in briefing text.
func AddrPrefix(addr string) string {
	trimmed := strings.TrimPrefix(addr, "0x")
	if len(trimmed) > 8 {
		trimmed = trimmed[:8]
	}
	return "0x" + trimmed
}
