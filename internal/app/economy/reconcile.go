// Package economy reconciles authoritative on-chain state (generators,
// resources, trades) with the display-facing world store, and houses the
// advisory recapture heuristic.
package economy

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"ledgerworld/internal/domain/geo"
	"ledgerworld/internal/domain/ledger"
	domainworld "ledgerworld/internal/domain/world"
	"ledgerworld/internal/platform/mq"
)

// GeneratorLister is the slice of the chain gateway the reconciler needs.
type GeneratorLister interface {
	GetMatch(ctx context.Context, matchID string) (ledger.Match, error)
	GetOwnedGenerators(ctx context.Context, addr string) ([]ledger.Generator, error)
}

// ItemUpserter is the slice of the world store the reconciler needs.
type ItemUpserter interface {
	UpsertItem(item domainworld.Item)
}

type Reconciler struct {
	logger zerolog.Logger
	chain  GeneratorLister
	world  ItemUpserter
	pub    mq.Publisher
}

func NewReconciler(logger zerolog.Logger, chain GeneratorLister, world ItemUpserter, pub mq.Publisher) *Reconciler {
	return &Reconciler{logger: logger, chain: chain, world: world, pub: pub}
}

// ListGeneratorsForMatch enumerates the match's declared participants and
// collects each participant's owned generators belonging to the match. The
// ledger's object model is ownership-indexed, so discovery is bounded by the
// participant list: a generator whose current holder is not in that list is
// invisible here. Known limitation, kept deliberately; see DESIGN.md.
func (r *Reconciler) ListGeneratorsForMatch(ctx context.Context, matchID string) ([]ledger.Generator, error) {
	match, err := r.chain.GetMatch(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("list generators: %w", err)
	}

	seen := make(map[string]struct{}, len(match.Participants))
	gens := make([]ledger.Generator, 0)
	for _, addr := range match.Participants {
		key := strings.ToLower(addr)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		owned, err := r.chain.GetOwnedGenerators(ctx, addr)
		if err != nil {
			return nil, fmt.Errorf("list generators for %s: %w", addr, err)
		}
		for _, g := range owned {
			if g.MatchID == matchID {
				gens = append(gens, g)
			}
		}
	}
	sort.Slice(gens, func(i, j int) bool { return gens[i].ObjectID < gens[j].ObjectID })
	return gens, nil
}

// SyncGeneratorsToWorld pulls the match's generators from the ledger and
// upserts a world-item projection for each. Safe to call after every
// mutating ledger action: a second pass over unchanged ledger data writes
// identical projections. Stale projections are never deleted here; absence
// in one pass does not imply removal.
func (r *Reconciler) SyncGeneratorsToWorld(ctx context.Context, matchID string) (int, error) {
	gens, err := r.ListGeneratorsForMatch(ctx, matchID)
	if err != nil {
		return 0, err
	}
	for _, g := range gens {
		r.world.UpsertItem(ProjectGenerator(g))
	}
	r.publishSynced(ctx, matchID, len(gens))
	return len(gens), nil
}

// ProjectGenerator derives the display item for a generator. The projection
// is a pure function of the ledger record: no timestamps, no randomness.
func ProjectGenerator(g ledger.Generator) domainworld.Item {
	item := domainworld.Item{
		ID:          "gen_" + g.ObjectID,
		Name:        generatorName(g.Kind),
		Description: describeGenerator(g),
		Position:    geo.Position{X: float64(g.X), Y: float64(g.Y)},
		Sprite: domainworld.Sprite{
			Image:       fmt.Sprintf("sprites/generator_%s.png", g.Kind),
			Frames:      4,
			FrameRateMS: 250,
		},
		Interactive: true,
	}
	if g.Claimed() {
		item.CollectedBy = g.Owner
	}
	return item
}

func generatorName(kind ledger.ResourceKind) string {
	switch kind {
	case ledger.ResourceWood:
		return "Wood Generator"
	case ledger.ResourceStone:
		return "Stone Generator"
	case ledger.ResourceEmerald:
		return "Emerald Generator"
	default:
		return "Generator"
	}
}

func describeGenerator(g ledger.Generator) string {
	if !g.Claimed() {
		return fmt.Sprintf("An unclaimed %s generator.", g.Kind)
	}
	return fmt.Sprintf("A level %d %s generator owned by %s, producing %d per interval (%d/%d stored).",
		g.Level, g.Kind, ledger.AddrPrefix(g.Owner), g.Rate, g.Unclaimed, g.MaxCap)
}

func (r *Reconciler) publishSynced(ctx context.Context, matchID string, count int) {
	if r.pub == nil {
		return
	}
	b, err := json.Marshal(map[string]any{"match_id": matchID, "generators": count})
	if err != nil {
		return
	}
	if err := r.pub.Publish(ctx, "economy.generators.synced", b); err != nil {
		r.logger.Warn().Err(err).Msg("publish sync event failed")
	}
}
