package briefing

import (
	"context"
	"fmt"
	"math"
	"strings"

	"ledgerworld/internal/domain/geo"
	"ledgerworld/internal/domain/ledger"
)

func (s *Synthesizer) buildSelfStatus(_ context.Context, in *sectionInput) (string, error) {
	lines := []string{
		"- Name: " + in.agent.Name,
		"- Description: " + in.agent.Description,
		fmt.Sprintf("- Position: (%d, %d)", int(math.Round(in.agent.PosX)), int(math.Round(in.agent.PosY))),
	}
	if in.agent.Address != "" {
		lines = append(lines, "- Ledger address: "+in.agent.Address)
	} else {
		lines = append(lines, "- Ledger address: (none registered)")
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Synthesizer) buildResources(ctx context.Context, in *sectionInput) (string, error) {
	if s.chain == nil || in.agent.Address == "" {
		return "- (resource ledger unavailable)", nil
	}
	res, err := s.chain.GetResources(ctx, in.agent.Address)
	if err != nil {
		return "", err
	}
	if res == nil {
		return "- No resources recorded yet.", nil
	}
	return strings.Join([]string{
		fmt.Sprintf("- Wood: %d", res.Balances.Wood),
		fmt.Sprintf("- Stone: %d", res.Balances.Stone),
		fmt.Sprintf("- Emerald: %d", res.Balances.Emerald),
	}, "\n"), nil
}

func (s *Synthesizer) buildNearbyAgents(_ context.Context, in *sectionInput) (string, error) {
	if s.world == nil {
		return "- (world unavailable)", nil
	}
	lines := make([]string, 0)
	for _, other := range s.world.AgentsInRange(in.pos, in.radius) {
		if other.ID == in.agent.ID {
			continue
		}
		desc := other.Description
		if desc == "" {
			desc = "no description"
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s. %s.",
			other.Name, ledger.AddrPrefix(other.Address), desc,
			locationPhrase(geo.Distance(in.pos, other.Position), geo.Direction(in.pos, other.Position))))
	}
	if len(lines) == 0 {
		return "- None nearby.", nil
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Synthesizer) buildNearbyPlayers(ctx context.Context, in *sectionInput) (string, error) {
	if s.players == nil {
		return "- (player directory unavailable)", nil
	}
	players, err := s.players.AllPlayers(ctx)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0)
	for _, p := range players {
		d := geo.Distance(in.pos, p.Position)
		if d > in.radius {
			continue
		}
		line := fmt.Sprintf("- %s (player): %s.", p.Name, locationPhrase(d, geo.Direction(in.pos, p.Position)))
		if p.LedgerAddress != "" && s.chain != nil {
			if res, err := s.chain.GetResources(ctx, p.LedgerAddress); err == nil && res != nil {
				line += " Holding " + formatResourceSet(res.Balances) + "."
			}
		}
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "- None nearby.", nil
	}
	return strings.Join(lines, "\n"), nil
}

// Fixed action-hint blocks. These are part of the textual contract: the
// downstream model keys on the exact action names.
const (
	generatorActionHints = "Available actions: CLAIM (take an unclaimed generator or collect from your own), RECAPTURE (seize another owner's generator and its stored resources)."
	tradeActionHints     = "Available actions: PROPOSE_TRADE (offer resources to another address), ACCEPT_TRADE, CANCEL_TRADE."
)

func (s *Synthesizer) buildNearbyGenerators(ctx context.Context, in *sectionInput) (string, error) {
	if s.generators == nil || s.chain == nil {
		return "- (generator ledger unavailable)", nil
	}
	if s.matchID == "" {
		return "- (no active match)", nil
	}
	gens, err := s.generators.ListGeneratorsForMatch(ctx, s.matchID)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0)
	for _, g := range gens {
		gpos := geo.Position{X: float64(g.X), Y: float64(g.Y)}
		d := geo.Distance(in.pos, gpos)
		if d > in.radius {
			continue
		}
		line := fmt.Sprintf("- %s generator at (%d, %d): %s. %s",
			capitalize(string(g.Kind)), g.X, g.Y,
			locationPhrase(d, geo.Direction(in.pos, gpos)),
			generatorTag(g, in.agent.Address))
		lines = append(lines, line)
	}
	if len(lines) == 0 {
		return "- None nearby.", nil
	}
	lines = append(lines, generatorActionHints)
	return strings.Join(lines, "\n"), nil
}

// generatorTag renders the ownership tag. Unclaimed generators carry no
// level/rate suffix; owned ones show level, rate and accrual.
func generatorTag(g ledger.Generator, selfAddr string) string {
	if !g.Claimed() {
		return "[UNCLAIMED - You can claim this!]"
	}
	stats := fmt.Sprintf("Level %d, producing %d per interval, %d/%d stored.", g.Level, g.Rate, g.Unclaimed, g.MaxCap)
	if g.OwnedBy(selfAddr) {
		return "[OWNED BY YOU] " + stats
	}
	return fmt.Sprintf("[OWNED BY %s] %s", ledger.AddrPrefix(g.Owner), stats)
}

func (s *Synthesizer) buildNearbyItems(_ context.Context, in *sectionInput) (string, error) {
	if s.world == nil {
		return "- (world unavailable)", nil
	}
	lines := make([]string, 0)
	for _, item := range s.world.ItemsInRange(in.pos, in.radius) {
		// Generator projections already appear in their own section.
		if strings.HasPrefix(item.ID, "gen_") {
			continue
		}
		tag := "[scenery]"
		if item.Interactive {
			tag = "[interactive]"
			if item.CollectedBy != "" {
				tag = "[already collected]"
			}
		}
		desc := item.Description
		if desc == "" {
			desc = "no description"
		}
		lines = append(lines, fmt.Sprintf("- %s %s: %s. %s.",
			item.Name, tag, desc,
			locationPhrase(geo.Distance(in.pos, item.Position), geo.Direction(in.pos, item.Position))))
	}
	if len(lines) == 0 {
		return "- None nearby.", nil
	}
	return strings.Join(lines, "\n"), nil
}

func (s *Synthesizer) buildPendingTrades(ctx context.Context, in *sectionInput) (string, error) {
	if s.chain == nil || in.agent.Address == "" {
		return "- (trade ledger unavailable)", nil
	}
	trades, err := s.chain.GetTradesInvolving(ctx, in.agent.Address)
	if err != nil {
		return "", err
	}
	lines := make([]string, 0)
	for _, t := range trades {
		if strings.EqualFold(t.Proposer, in.agent.Address) {
			lines = append(lines, fmt.Sprintf("- [YOU PROPOSED] trade %s to %s: offering %s for %s.",
				t.ObjectID, ledger.AddrPrefix(t.Target),
				formatResourceSet(t.Offer), formatResourceSet(t.Request)))
		} else {
			lines = append(lines, fmt.Sprintf("- [PROPOSED TO YOU] trade %s by %s: they offer %s for %s.",
				t.ObjectID, ledger.AddrPrefix(t.Proposer),
				formatResourceSet(t.Offer), formatResourceSet(t.Request)))
		}
	}
	if len(lines) == 0 {
		return "- No pending trades.", nil
	}
	lines = append(lines, tradeActionHints)
	return strings.Join(lines, "\n"), nil
}

func (s *Synthesizer) buildWorldSummary(ctx context.Context, in *sectionInput) (string, error) {
	if s.world == nil {
		return "- (world unavailable)", nil
	}
	sum := s.world.Summary()
	lines := []string{
		fmt.Sprintf("- World size: %.0f x %.0f", sum.Width, sum.Height),
		fmt.Sprintf("- Agents in world: %d", sum.AgentCount),
		fmt.Sprintf("- Items in world: %d", sum.ItemCount),
	}
	if s.matchID != "" && s.chain != nil && s.generators != nil {
		if match, err := s.chain.GetMatch(ctx, s.matchID); err == nil {
			lines = append(lines, fmt.Sprintf("- Match participants: %d", len(match.Participants)))
			if gens, err := s.generators.ListGeneratorsForMatch(ctx, s.matchID); err == nil {
				lines = append(lines, fmt.Sprintf("- Generators in match: %d", len(gens)))
			}
		}
	}
	return strings.Join(lines, "\n"), nil
}

// locationPhrase is the uniform distance/bearing wording used by every
// nearby section.
func locationPhrase(distance float64, direction string) string {
	if direction == geo.DirectionNearby {
		return "right here, nearby"
	}
	return fmt.Sprintf("%.0f units away to the %s", distance, direction)
}

func formatResourceSet(r ledger.ResourceSet) string {
	return fmt.Sprintf("%d wood, %d stone, %d emerald", r.Wood, r.Stone, r.Emerald)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
