package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ledgerworld/internal/domain/agent"
	"ledgerworld/internal/domain/geo"
	"ledgerworld/internal/domain/ledger"
	domainworld "ledgerworld/internal/domain/world"
	"ledgerworld/internal/platform/mq"
)

var ErrNotFound = errors.New("agent not found")

const listCacheKey = "agents:all"

// AccountRegistrar creates a ledger keypair for a new agent. Nil disables
// on-chain accounts (agents then exist without an economy identity).
type AccountRegistrar interface {
	RegisterAccount(ctx context.Context) (ledger.Account, error)
}

// PresenceStore mirrors agents into the live world for range queries and
// broadcasts.
type PresenceStore interface {
	UpsertAgent(a domainworld.AgentPresence)
	RemoveAgent(id uuid.UUID)
	ClampPosition(p geo.Position) geo.Position
}

// Service is the agent registry. Postgres is the source of truth; redis
// caches the full list; the world store holds a live mirror.
type Service struct {
	db       *pgxpool.Pool
	cache    *redis.Client
	cacheTTL time.Duration
	pub      mq.Publisher
	chain    AccountRegistrar
	world    PresenceStore
}

func NewService(db *pgxpool.Pool, cache *redis.Client, cacheTTL time.Duration, pub mq.Publisher, chain AccountRegistrar, world PresenceStore) *Service {
	return &Service{db: db, cache: cache, cacheTTL: cacheTTL, pub: pub, chain: chain, world: world}
}

func (s *Service) Create(ctx context.Context, name, description, dialogueAgentID string, pos geo.Position) (agent.Agent, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return agent.Agent{}, fmt.Errorf("name required")
	}
	if s.world != nil {
		pos = s.world.ClampPosition(pos)
	}

	var acc ledger.Account
	if s.chain != nil {
		var err error
		acc, err = s.chain.RegisterAccount(ctx)
		if err != nil {
			return agent.Agent{}, fmt.Errorf("register ledger account: %w", err)
		}
	}

	id := uuid.New()
	var a agent.Agent
	err := s.db.QueryRow(ctx, `
INSERT INTO agents (id, dialogue_agent_id, name, description, pos_x, pos_y, address, public_key, private_key)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id, dialogue_agent_id, name, description, pos_x, pos_y, address, public_key, private_key, created_at
`, id, dialogueAgentID, name, description, pos.X, pos.Y, acc.Address, acc.PublicKey, acc.PrivateKey).
		Scan(&a.ID, &a.DialogueAgentID, &a.Name, &a.Description, &a.PosX, &a.PosY, &a.Address, &a.PublicKey, &a.PrivateKey, &a.CreatedAt)
	if err != nil {
		return agent.Agent{}, fmt.Errorf("insert agent: %w", err)
	}

	s.invalidateList(ctx)
	s.syncPresence(a)
	_ = s.publishEvent(ctx, "agent.created", map[string]any{"agent_id": a.ID, "name": a.Name, "address": a.Address})
	return a, nil
}

func (s *Service) List(ctx context.Context) ([]agent.Agent, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, listCacheKey).Result()
		if err == nil {
			var agents []agent.Agent
			if uErr := json.Unmarshal([]byte(cached), &agents); uErr == nil {
				return agents, nil
			}
		}
	}

	rows, err := s.db.Query(ctx, `
SELECT id, dialogue_agent_id, name, description, pos_x, pos_y, address, public_key, private_key, created_at
FROM agents ORDER BY created_at ASC
`)
	if err != nil {
		return nil, fmt.Errorf("query agents: %w", err)
	}
	defer rows.Close()

	agents := make([]agent.Agent, 0)
	for rows.Next() {
		var a agent.Agent
		if err := rows.Scan(&a.ID, &a.DialogueAgentID, &a.Name, &a.Description, &a.PosX, &a.PosY, &a.Address, &a.PublicKey, &a.PrivateKey, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan agent: %w", err)
		}
		agents = append(agents, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate agents: %w", err)
	}
	if s.cache != nil {
		if b, err := json.Marshal(agents); err == nil {
			_ = s.cache.Set(ctx, listCacheKey, b, s.cacheTTL).Err()
		}
	}
	return agents, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (agent.Agent, error) {
	var a agent.Agent
	err := s.db.QueryRow(ctx, `
SELECT id, dialogue_agent_id, name, description, pos_x, pos_y, address, public_key, private_key, created_at
FROM agents WHERE id = $1
`, id).Scan(&a.ID, &a.DialogueAgentID, &a.Name, &a.Description, &a.PosX, &a.PosY, &a.Address, &a.PublicKey, &a.PrivateKey, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return agent.Agent{}, ErrNotFound
		}
		return agent.Agent{}, fmt.Errorf("query agent: %w", err)
	}
	return a, nil
}

func (s *Service) UpdatePosition(ctx context.Context, id uuid.UUID, pos geo.Position) (agent.Agent, error) {
	if s.world != nil {
		pos = s.world.ClampPosition(pos)
	}
	var a agent.Agent
	err := s.db.QueryRow(ctx, `
UPDATE agents SET pos_x = $1, pos_y = $2, updated_at = NOW()
WHERE id = $3
RETURNING id, dialogue_agent_id, name, description, pos_x, pos_y, address, public_key, private_key, created_at
`, pos.X, pos.Y, id).Scan(&a.ID, &a.DialogueAgentID, &a.Name, &a.Description, &a.PosX, &a.PosY, &a.Address, &a.PublicKey, &a.PrivateKey, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return agent.Agent{}, ErrNotFound
		}
		return agent.Agent{}, fmt.Errorf("update agent position: %w", err)
	}

	s.invalidateList(ctx)
	s.syncPresence(a)
	_ = s.publishEvent(ctx, "agent.moved", map[string]any{"agent_id": a.ID, "x": a.PosX, "y": a.PosY})
	return a, nil
}

// Delete removes an agent. This is an isolated operation, not part of the
// core loop; ledger objects the agent owns stay on the ledger.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.Exec(ctx, `DELETE FROM agents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete agent: %w", err)
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	s.invalidateList(ctx)
	if s.world != nil {
		s.world.RemoveAgent(id)
	}
	_ = s.publishEvent(ctx, "agent.deleted", map[string]any{"agent_id": id})
	return nil
}

// SignerKey returns the agent's private key for entry calls. Server-side
// only; never exposed over the API.
func (s *Service) SignerKey(ctx context.Context, id uuid.UUID) (string, error) {
	a, err := s.GetByID(ctx, id)
	if err != nil {
		return "", err
	}
	if a.PrivateKey == "" {
		return "", fmt.Errorf("agent %s has no ledger account", id)
	}
	return a.PrivateKey, nil
}

// RestorePresences loads all agents into the world store, used at startup
// so range queries see agents persisted by earlier runs.
func (s *Service) RestorePresences(ctx context.Context) error {
	agents, err := s.List(ctx)
	if err != nil {
		return err
	}
	for _, a := range agents {
		s.syncPresence(a)
	}
	return nil
}

func (s *Service) syncPresence(a agent.Agent) {
	if s.world == nil {
		return
	}
	s.world.UpsertAgent(domainworld.AgentPresence{
		ID:          a.ID,
		Name:        a.Name,
		Description: a.Description,
		Address:     a.Address,
		Position:    geo.Position{X: a.PosX, Y: a.PosY},
	})
}

func (s *Service) invalidateList(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Del(ctx, listCacheKey).Err()
}

func (s *Service) publishEvent(ctx context.Context, subject string, payload any) error {
	if s.pub == nil {
		return nil
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.pub.Publish(ctx, subject, b)
}
