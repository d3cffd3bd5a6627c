// Package briefing assembles the situational context an autonomous agent
// receives before every decision or conversation turn. The output is plain
// text with a fixed section structure; downstream language models are
// sensitive to phrasing consistency, so section headers, the "- " bullet
// prefix, and bracketed tags are treated as a stable contract.
package briefing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ledgerworld/internal/domain/agent"
	"ledgerworld/internal/domain/geo"
	"ledgerworld/internal/domain/ledger"
	domainworld "ledgerworld/internal/domain/world"
)

var ErrAgentNotFound = errors.New("agent not found")

// AgentSource resolves the agent being briefed. This is the only
// collaborator whose failure aborts synthesis.
type AgentSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (agent.Agent, error)
}

// WorldStore is the range-query view of the world the briefing needs.
type WorldStore interface {
	AgentsInRange(pos geo.Position, radius float64) []domainworld.AgentPresence
	ItemsInRange(pos geo.Position, radius float64) []domainworld.Item
	Summary() domainworld.Summary
}

// ChainReader covers the per-account ledger reads used by the balance and
// trade sections.
type ChainReader interface {
	GetResources(ctx context.Context, addr string) (*ledger.Resources, error)
	GetTradesInvolving(ctx context.Context, addr string) ([]ledger.TradeProposal, error)
	GetMatch(ctx context.Context, matchID string) (ledger.Match, error)
}

// GeneratorSource lists the active match's generators. The economy
// reconciler satisfies it.
type GeneratorSource interface {
	ListGeneratorsForMatch(ctx context.Context, matchID string) ([]ledger.Generator, error)
}

// PlayerDirectory lists human players with their last known position and
// optional ledger-address metadata.
type PlayerDirectory interface {
	AllPlayers(ctx context.Context) ([]domainworld.PlayerData, error)
}

// Synthesizer holds explicit references to its collaborators; there are no
// package-level singletons. Every collaborator except the agent source may
// be nil, in which case the sections backed by it render a fixed
// unavailable placeholder instead of failing.
type Synthesizer struct {
	logger        zerolog.Logger
	agents        AgentSource
	world         WorldStore
	chain         ChainReader
	generators    GeneratorSource
	players       PlayerDirectory
	matchID       string
	defaultRadius float64
}

type Options struct {
	Logger        zerolog.Logger
	Agents        AgentSource
	World         WorldStore
	Chain         ChainReader
	Generators    GeneratorSource
	Players       PlayerDirectory
	MatchID       string
	DefaultRadius float64
}

func New(opts Options) *Synthesizer {
	radius := opts.DefaultRadius
	if radius <= 0 {
		radius = 25
	}
	return &Synthesizer{
		logger:        opts.Logger,
		agents:        opts.Agents,
		world:         opts.World,
		chain:         opts.Chain,
		generators:    opts.Generators,
		players:       opts.Players,
		matchID:       opts.MatchID,
		defaultRadius: radius,
	}
}

type sectionInput struct {
	agent  agent.Agent
	pos    geo.Position
	radius float64
}

// section is one independently-computable block of the briefing. Builders
// return the bulleted body only; the synthesizer owns headers, ordering and
// error placeholders.
type section struct {
	name   string
	header string
	build  func(ctx context.Context, in *sectionInput) (string, error)
}

func (s *Synthesizer) sections() []section {
	return []section{
		{"self status", "=== YOUR STATUS ===", s.buildSelfStatus},
		{"resources", "=== YOUR RESOURCES ===", s.buildResources},
		{"nearby agents", "=== NEARBY AGENTS ===", s.buildNearbyAgents},
		{"nearby players", "=== NEARBY PLAYERS ===", s.buildNearbyPlayers},
		{"nearby generators", "=== NEARBY GENERATORS ===", s.buildNearbyGenerators},
		{"nearby items", "=== NEARBY ITEMS ===", s.buildNearbyItems},
		{"pending trades", "=== PENDING TRADES ===", s.buildPendingTrades},
		{"world summary", "=== WORLD SUMMARY ===", s.buildWorldSummary},
	}
}

// Synthesize builds the full context document for one agent. radius <= 0
// falls back to the configured default and applies uniformly to every
// nearby section. The only fatal path is failing to resolve the agent;
// any section error degrades to a placeholder line.
func (s *Synthesizer) Synthesize(ctx context.Context, agentID uuid.UUID, radius float64) (string, error) {
	a, err := s.agents.GetByID(ctx, agentID)
	if err != nil {
		return "", fmt.Errorf("resolve agent %s: %w", agentID, err)
	}
	if radius <= 0 {
		radius = s.defaultRadius
	}
	in := &sectionInput{
		agent:  a,
		pos:    geo.Position{X: a.PosX, Y: a.PosY},
		radius: radius,
	}

	blocks := make([]string, 0, 8)
	for _, sec := range s.sections() {
		body, err := sec.build(ctx, in)
		if err != nil {
			s.logger.Warn().Err(err).Str("section", sec.name).Str("agent_id", agentID.String()).Msg("briefing section failed")
			body = fmt.Sprintf("- (error loading %s)", sec.name)
		}
		blocks = append(blocks, sec.header+"\n"+body)
	}
	return strings.Join(blocks, "\n\n"), nil
}

// SynthesizeForDecision appends the static decision-guidance block after
// the base context. The addendum carries no state and never fails.
func (s *Synthesizer) SynthesizeForDecision(ctx context.Context, agentID uuid.UUID, radius float64) (string, error) {
	base, err := s.Synthesize(ctx, agentID, radius)
	if err != nil {
		return "", err
	}
	return base + "\n\n" + decisionGuidance, nil
}

const decisionGuidance = `=== DECISION GUIDANCE ===
- Prioritize claiming unclaimed generators near you; they produce resources over time.
- Collect from your own generators before they hit capacity, or production is wasted.
- Trade surplus resources for what you lack; a fair offer is more likely to be accepted.
- Recapture another owner's generator only when your memories justify it; unprovoked seizure sours relations.
- Talk to nearby agents and players to learn what they need and what they have seen.`
