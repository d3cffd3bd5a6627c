package briefing

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"ledgerworld/internal/domain/agent"
	"ledgerworld/internal/domain/geo"
	"ledgerworld/internal/domain/ledger"
	domainworld "ledgerworld/internal/domain/world"
)

type fakeAgents struct {
	byID map[uuid.UUID]agent.Agent
}

func (f *fakeAgents) GetByID(_ context.Context, id uuid.UUID) (agent.Agent, error) {
	a, ok := f.byID[id]
	if !ok {
		return agent.Agent{}, ErrAgentNotFound
	}
	return a, nil
}

type fakeWorld struct {
	agents []domainworld.AgentPresence
	items  []domainworld.Item
}

func (f *fakeWorld) AgentsInRange(pos geo.Position, radius float64) []domainworld.AgentPresence {
	out := make([]domainworld.AgentPresence, 0)
	for _, a := range f.agents {
		if geo.Distance(pos, a.Position) <= radius {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeWorld) ItemsInRange(pos geo.Position, radius float64) []domainworld.Item {
	out := make([]domainworld.Item, 0)
	for _, item := range f.items {
		if geo.Distance(pos, item.Position) <= radius {
			out = append(out, item)
		}
	}
	return out
}

func (f *fakeWorld) Summary() domainworld.Summary {
	return domainworld.Summary{Width: 200, Height: 200, AgentCount: len(f.agents), ItemCount: len(f.items)}
}

type fakeChain struct {
	resources map[string]*ledger.Resources
	trades    []ledger.TradeProposal
	match     ledger.Match
	err       error
}

func (f *fakeChain) GetResources(_ context.Context, addr string) (*ledger.Resources, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.resources[addr], nil
}

func (f *fakeChain) GetTradesInvolving(_ context.Context, _ string) ([]ledger.TradeProposal, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.trades, nil
}

func (f *fakeChain) GetMatch(_ context.Context, _ string) (ledger.Match, error) {
	if f.err != nil {
		return ledger.Match{}, f.err
	}
	return f.match, nil
}

type fakeGens struct {
	gens []ledger.Generator
	err  error
}

func (f *fakeGens) ListGeneratorsForMatch(_ context.Context, _ string) ([]ledger.Generator, error) {
	return f.gens, f.err
}

type fakePlayers struct {
	players []domainworld.PlayerData
	err     error
}

func (f *fakePlayers) AllPlayers(_ context.Context) ([]domainworld.PlayerData, error) {
	return f.players, f.err
}

var sectionHeaders = []string{
	"=== YOUR STATUS ===",
	"=== YOUR RESOURCES ===",
	"=== NEARBY AGENTS ===",
	"=== NEARBY PLAYERS ===",
	"=== NEARBY GENERATORS ===",
	"=== NEARBY ITEMS ===",
	"=== PENDING TRADES ===",
	"=== WORLD SUMMARY ===",
}

func newSelf() (uuid.UUID, *fakeAgents) {
	id := uuid.New()
	return id, &fakeAgents{byID: map[uuid.UUID]agent.Agent{
		id: {ID: id, Name: "Aria", Description: "a curious wanderer", PosX: 50, PosY: 50, Address: "0xself00aa11bb"},
	}}
}

func assertSectionOrder(t *testing.T, text string) {
	t.Helper()
	last := -1
	for _, h := range sectionHeaders {
		idx := strings.Index(text, h)
		if idx < 0 {
			t.Fatalf("missing section header %q in:\n%s", h, text)
		}
		if idx < last {
			t.Fatalf("section %q out of order", h)
		}
		last = idx
	}
}

func TestSynthesizeWithNoOptionalCollaborators(t *testing.T) {
	id, agents := newSelf()
	s := New(Options{Logger: zerolog.Nop(), Agents: agents})

	text, err := s.Synthesize(context.Background(), id, 0)
	if err != nil {
		t.Fatalf("expected graceful degradation, got %v", err)
	}
	assertSectionOrder(t, text)
	for _, want := range []string{
		"- Name: Aria",
		"- Position: (50, 50)",
		"- (resource ledger unavailable)",
		"- (world unavailable)",
		"- (player directory unavailable)",
		"- (generator ledger unavailable)",
		"- (trade ledger unavailable)",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("missing %q in:\n%s", want, text)
		}
	}
}

func TestSynthesizeAgentNotFoundIsFatal(t *testing.T) {
	_, agents := newSelf()
	s := New(Options{Logger: zerolog.Nop(), Agents: agents})
	_, err := s.Synthesize(context.Background(), uuid.New(), 20)
	if !errors.Is(err, ErrAgentNotFound) {
		t.Fatalf("expected ErrAgentNotFound, got %v", err)
	}
}

func TestNearbyAgentLineWithDistanceAndBearing(t *testing.T) {
	id, agents := newSelf()
	w := &fakeWorld{agents: []domainworld.AgentPresence{
		{ID: id, Name: "Aria", Position: geo.Position{X: 50, Y: 50}},
		{ID: uuid.New(), Name: "Bramble", Description: "a gruff trader", Address: "0xbramble99", Position: geo.Position{X: 55, Y: 50}},
		{ID: uuid.New(), Name: "Distant", Position: geo.Position{X: 150, Y: 150}},
	}}
	s := New(Options{Logger: zerolog.Nop(), Agents: agents, World: w})

	text, err := s.Synthesize(context.Background(), id, 20)
	if err != nil {
		t.Fatalf("Synthesize err: %v", err)
	}
	agentsSection := extractSection(t, text, "=== NEARBY AGENTS ===")
	bullets := strings.Count(agentsSection, "\n- ") + boolToInt(strings.HasPrefix(agentsSection, "- "))
	if bullets != 1 {
		t.Fatalf("expected exactly one nearby-agent bullet, got %d in:\n%s", bullets, agentsSection)
	}
	if !strings.Contains(agentsSection, "Bramble") {
		t.Fatalf("missing agent name in:\n%s", agentsSection)
	}
	if !strings.Contains(agentsSection, "5 units away to the East") {
		t.Fatalf("missing distance/bearing phrase in:\n%s", agentsSection)
	}
}

func TestUnclaimedGeneratorTagWithoutStats(t *testing.T) {
	id, agents := newSelf()
	gens := &fakeGens{gens: []ledger.Generator{
		{ObjectID: "g1", MatchID: "m1", Kind: ledger.ResourceWood, X: 60, Y: 50, Owner: ledger.UnclaimedOwner},
	}}
	s := New(Options{
		Logger: zerolog.Nop(), Agents: agents, World: &fakeWorld{},
		Chain: &fakeChain{}, Generators: gens, MatchID: "m1",
	})

	text, err := s.Synthesize(context.Background(), id, 20)
	if err != nil {
		t.Fatalf("Synthesize err: %v", err)
	}
	genSection := extractSection(t, text, "=== NEARBY GENERATORS ===")
	if !strings.Contains(genSection, "[UNCLAIMED - You can claim this!]") {
		t.Fatalf("missing unclaimed tag in:\n%s", genSection)
	}
	if strings.Contains(genSection, "Level") {
		t.Fatalf("unclaimed generator must not carry level/rate stats:\n%s", genSection)
	}
	if !strings.Contains(genSection, "Available actions:") {
		t.Fatalf("missing action hints in:\n%s", genSection)
	}
}

func TestOwnedGeneratorTags(t *testing.T) {
	id, agents := newSelf()
	gens := &fakeGens{gens: []ledger.Generator{
		{ObjectID: "g1", MatchID: "m1", Kind: ledger.ResourceStone, X: 55, Y: 50, Owner: "0xself00aa11bb", Level: 2, Rate: 3, MaxCap: 50, Unclaimed: 7},
		{ObjectID: "g2", MatchID: "m1", Kind: ledger.ResourceWood, X: 45, Y: 50, Owner: "0xrival12345678", Level: 1, Rate: 1, MaxCap: 30, Unclaimed: 2},
	}}
	s := New(Options{
		Logger: zerolog.Nop(), Agents: agents, World: &fakeWorld{},
		Chain: &fakeChain{}, Generators: gens, MatchID: "m1",
	})

	text, err := s.Synthesize(context.Background(), id, 20)
	if err != nil {
		t.Fatalf("Synthesize err: %v", err)
	}
	if !strings.Contains(text, "[OWNED BY YOU] Level 2, producing 3 per interval, 7/50 stored.") {
		t.Fatalf("missing own-generator tag in:\n%s", text)
	}
	if !strings.Contains(text, "[OWNED BY 0xrival123]") {
		t.Fatalf("missing rival-owner tag in:\n%s", text)
	}
}

func TestTradeRoleLabels(t *testing.T) {
	id, agents := newSelf()
	chain := &fakeChain{trades: []ledger.TradeProposal{
		{ObjectID: "t1", Proposer: "0xother", Target: "0xself00aa11bb", Offer: ledger.ResourceSet{Wood: 3}, Request: ledger.ResourceSet{Stone: 1}},
		{ObjectID: "t2", Proposer: "0xself00aa11bb", Target: "0xother", Offer: ledger.ResourceSet{Emerald: 1}, Request: ledger.ResourceSet{Wood: 5}},
	}}
	s := New(Options{Logger: zerolog.Nop(), Agents: agents, World: &fakeWorld{}, Chain: chain})

	text, err := s.Synthesize(context.Background(), id, 20)
	if err != nil {
		t.Fatalf("Synthesize err: %v", err)
	}
	trades := extractSection(t, text, "=== PENDING TRADES ===")
	if !strings.Contains(trades, "[PROPOSED TO YOU] trade t1") {
		t.Fatalf("missing target role label in:\n%s", trades)
	}
	if !strings.Contains(trades, "[YOU PROPOSED] trade t2") {
		t.Fatalf("missing proposer role label in:\n%s", trades)
	}
	if !strings.Contains(trades, "they offer 3 wood, 0 stone, 0 emerald for 0 wood, 1 stone, 0 emerald") {
		t.Fatalf("missing offer/request triple in:\n%s", trades)
	}
}

func TestSectionErrorDegradesToPlaceholder(t *testing.T) {
	id, agents := newSelf()
	chain := &fakeChain{err: errors.New("gateway timeout")}
	s := New(Options{Logger: zerolog.Nop(), Agents: agents, World: &fakeWorld{}, Chain: chain})

	text, err := s.Synthesize(context.Background(), id, 20)
	if err != nil {
		t.Fatalf("section failure must not abort synthesis: %v", err)
	}
	if !strings.Contains(text, "- (error loading resources)") {
		t.Fatalf("missing resources error placeholder in:\n%s", text)
	}
	if !strings.Contains(text, "- (error loading pending trades)") {
		t.Fatalf("missing trades error placeholder in:\n%s", text)
	}
	assertSectionOrder(t, text)
}

func TestPlayerLineWithInlineResources(t *testing.T) {
	id, agents := newSelf()
	players := &fakePlayers{players: []domainworld.PlayerData{
		{ID: uuid.New(), Name: "Dana", Position: geo.Position{X: 50, Y: 42}, LedgerAddress: "0xdana"},
	}}
	chain := &fakeChain{resources: map[string]*ledger.Resources{
		"0xdana": {Owner: "0xdana", Balances: ledger.ResourceSet{Wood: 4, Stone: 2}},
	}}
	s := New(Options{Logger: zerolog.Nop(), Agents: agents, World: &fakeWorld{}, Chain: chain, Players: players})

	text, err := s.Synthesize(context.Background(), id, 20)
	if err != nil {
		t.Fatalf("Synthesize err: %v", err)
	}
	playersSection := extractSection(t, text, "=== NEARBY PLAYERS ===")
	if !strings.Contains(playersSection, "Dana (player): 8 units away to the North") {
		t.Fatalf("missing player line in:\n%s", playersSection)
	}
	if !strings.Contains(playersSection, "Holding 4 wood, 2 stone, 0 emerald") {
		t.Fatalf("missing inline resource summary in:\n%s", playersSection)
	}
}

func TestDecisionGuidanceAppended(t *testing.T) {
	id, agents := newSelf()
	s := New(Options{Logger: zerolog.Nop(), Agents: agents})

	text, err := s.SynthesizeForDecision(context.Background(), id, 20)
	if err != nil {
		t.Fatalf("SynthesizeForDecision err: %v", err)
	}
	if !strings.HasSuffix(strings.TrimSpace(text), "what they have seen.") {
		t.Fatalf("guidance must come last:\n%s", text)
	}
	guidanceIdx := strings.Index(text, "=== DECISION GUIDANCE ===")
	summaryIdx := strings.Index(text, "=== WORLD SUMMARY ===")
	if guidanceIdx < summaryIdx {
		t.Fatal("guidance must follow the base context")
	}
}

func extractSection(t *testing.T, text, header string) string {
	t.Helper()
	idx := strings.Index(text, header)
	if idx < 0 {
		t.Fatalf("missing header %q in:\n%s", header, text)
	}
	rest := text[idx+len(header):]
	if end := strings.Index(rest, "\n\n"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
