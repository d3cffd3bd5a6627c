package world

import (
	"context"
	"encoding/json"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ledgerworld/internal/domain/geo"
	domainworld "ledgerworld/internal/domain/world"
	"ledgerworld/internal/platform/mq"
)

// Client is one connected websocket viewer. Sends are buffered and
// non-blocking; a slow client drops frames rather than stalling broadcasts.
type Client struct {
	Conn   *websocket.Conn
	UserID uuid.UUID
	Send   chan []byte
}

// Service is the in-memory world store: live agent presences and world
// items keyed by id, with range queries used by briefing synthesis. It is
// a display-facing mirror, not a source of truth; agents live in postgres,
// generators on the ledger.
type Service struct {
	logger zerolog.Logger
	pub    mq.Publisher
	width  float64
	height float64

	mu      sync.RWMutex
	agents  map[uuid.UUID]domainworld.AgentPresence
	items   map[string]domainworld.Item
	clients map[*Client]struct{}
}

func NewService(logger zerolog.Logger, pub mq.Publisher, width, height float64) *Service {
	return &Service{
		logger:  logger,
		pub:     pub,
		width:   width,
		height:  height,
		agents:  make(map[uuid.UUID]domainworld.AgentPresence),
		items:   make(map[string]domainworld.Item),
		clients: make(map[*Client]struct{}),
	}
}

func (s *Service) Bounds() (width, height float64) {
	return s.width, s.height
}

// ClampPosition keeps agent and player positions inside world bounds.
// Items and generators may sit anywhere.
func (s *Service) ClampPosition(p geo.Position) geo.Position {
	return geo.Position{
		X: math.Min(math.Max(p.X, 0), s.width),
		Y: math.Min(math.Max(p.Y, 0), s.height),
	}
}

func (s *Service) UpsertAgent(a domainworld.AgentPresence) {
	a.Position = s.ClampPosition(a.Position)
	s.mu.Lock()
	s.agents[a.ID] = a
	s.mu.Unlock()
	s.broadcast(map[string]any{"type": "agent_update", "agent": a})
}

func (s *Service) RemoveAgent(id uuid.UUID) {
	s.mu.Lock()
	_, existed := s.agents[id]
	delete(s.agents, id)
	s.mu.Unlock()
	if existed {
		s.broadcast(map[string]any{"type": "agent_removed", "agent_id": id})
	}
}

func (s *Service) GetAgent(id uuid.UUID) (domainworld.AgentPresence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.agents[id]
	return a, ok
}

// AgentsInRange returns presences within radius of pos, sorted by distance.
// The caller filters out self where needed.
func (s *Service) AgentsInRange(pos geo.Position, radius float64) []domainworld.AgentPresence {
	s.mu.RLock()
	out := make([]domainworld.AgentPresence, 0)
	for _, a := range s.agents {
		if geo.Distance(pos, a.Position) <= radius {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return geo.Distance(pos, out[i].Position) < geo.Distance(pos, out[j].Position)
	})
	return out
}

// UpsertItem inserts or overwrites an item by id. Reconciliation relies on
// overwrite-in-place here: calling it twice with the same projection must
// leave the stored item identical.
func (s *Service) UpsertItem(item domainworld.Item) {
	s.mu.Lock()
	s.items[item.ID] = item
	s.mu.Unlock()
	s.broadcast(map[string]any{"type": "item_update", "item": item})
	s.publishEvent("world.item.upserted", map[string]any{"item_id": item.ID})
}

func (s *Service) GetItem(id string) (domainworld.Item, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	item, ok := s.items[id]
	return item, ok
}

func (s *Service) ItemsInRange(pos geo.Position, radius float64) []domainworld.Item {
	s.mu.RLock()
	out := make([]domainworld.Item, 0)
	for _, item := range s.items {
		if geo.Distance(pos, item.Position) <= radius {
			out = append(out, item)
		}
	}
	s.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		return geo.Distance(pos, out[i].Position) < geo.Distance(pos, out[j].Position)
	})
	return out
}

// CollectItem marks an interactive item collected. Returns false when the
// item is missing, non-interactive, or already collected.
func (s *Service) CollectItem(id, collectorAddr string) (domainworld.Item, bool) {
	s.mu.Lock()
	item, ok := s.items[id]
	if !ok || !item.Interactive || item.CollectedBy != "" {
		s.mu.Unlock()
		return domainworld.Item{}, false
	}
	now := time.Now().UTC()
	item.CollectedBy = collectorAddr
	item.CollectedAt = &now
	s.items[id] = item
	s.mu.Unlock()

	s.broadcast(map[string]any{"type": "item_collected", "item": item})
	s.publishEvent("world.item.collected", map[string]any{"item_id": id, "collected_by": collectorAddr})
	return item, true
}

func (s *Service) Summary() domainworld.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return domainworld.Summary{
		Width:      s.width,
		Height:     s.height,
		AgentCount: len(s.agents),
		ItemCount:  len(s.items),
	}
}

func (s *Service) State() domainworld.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	agents := make([]domainworld.AgentPresence, 0, len(s.agents))
	for _, a := range s.agents {
		agents = append(agents, a)
	}
	items := make([]domainworld.Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}
	sort.Slice(agents, func(i, j int) bool { return agents[i].ID.String() < agents[j].ID.String() })
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
	return domainworld.State{Width: s.width, Height: s.height, Agents: agents, Items: items}
}

func (s *Service) RegisterClient(conn *websocket.Conn, userID uuid.UUID) *Client {
	c := &Client{Conn: conn, UserID: userID, Send: make(chan []byte, 128)}
	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	nonBlockingSendJSON(c.Send, map[string]any{"type": "welcome", "world": s.State()})
	return c
}

func (s *Service) UnregisterClient(_ context.Context, c *Client) {
	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	close(c.Send)
	if c.Conn != nil {
		_ = c.Conn.Close()
	}
}

func (s *Service) broadcast(payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		s.logger.Error().Err(err).Msg("marshal ws payload failed")
		return
	}
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.mu.RUnlock()

	for _, c := range clients {
		nonBlockingSend(c.Send, b)
	}
}

func (s *Service) publishEvent(subject string, payload any) {
	if s.pub == nil {
		return
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if err := s.pub.Publish(context.Background(), subject, b); err != nil {
		s.logger.Warn().Err(err).Str("subject", subject).Msg("event publish failed")
	}
}

func nonBlockingSend(ch chan []byte, msg []byte) {
	select {
	case ch <- msg:
	default:
	}
}

func nonBlockingSendJSON(ch chan []byte, payload any) {
	b, err := json.Marshal(payload)
	if err != nil {
		return
	}
	nonBlockingSend(ch, b)
}
