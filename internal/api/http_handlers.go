package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	agentapp "ledgerworld/internal/app/agent"
	authapp "ledgerworld/internal/app/auth"
	briefingapp "ledgerworld/internal/app/briefing"
	dialogueapp "ledgerworld/internal/app/dialogue"
	economyapp "ledgerworld/internal/app/economy"
	worldapp "ledgerworld/internal/app/world"
	"ledgerworld/internal/domain/geo"
	"ledgerworld/internal/domain/ledger"
	"ledgerworld/internal/platform/chain"
)

type Handler struct {
	logger      zerolog.Logger
	auth        *authapp.Service
	agents      *agentapp.Service
	world       *worldapp.Service
	economy     *economyapp.Reconciler
	chain       *chain.Client
	briefing    *briefingapp.Synthesizer
	dialogue    *dialogueapp.Client
	matchID     string
	corsOrigin  string
	maxBodySize int64
}

type contextKey string

const userIDContextKey contextKey = "user_id"

func NewHandler(
	logger zerolog.Logger,
	auth *authapp.Service,
	agents *agentapp.Service,
	world *worldapp.Service,
	economy *economyapp.Reconciler,
	chainClient *chain.Client,
	briefing *briefingapp.Synthesizer,
	dialogue *dialogueapp.Client,
	matchID string,
	corsOrigin string,
	maxBodySize int64,
) *Handler {
	return &Handler{
		logger:      logger,
		auth:        auth,
		agents:      agents,
		world:       world,
		economy:     economy,
		chain:       chainClient,
		briefing:    briefing,
		dialogue:    dialogue,
		matchID:     matchID,
		corsOrigin:  corsOrigin,
		maxBodySize: maxBodySize,
	}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(h.cors)

	r.Get("/healthz", h.health)
	r.Get("/readyz", h.ready)

	r.Route("/v1", func(v1 chi.Router) {
		v1.Post("/auth/register", h.register)
		v1.Post("/auth/login", h.login)

		v1.Get("/world/state", h.worldState)
		v1.Get("/world/ws", h.worldWS)

		v1.Get("/agents", h.listAgents)
		v1.Post("/agents", h.createAgent)
		v1.Get("/agents/{agentID}", h.getAgent)
		v1.Delete("/agents/{agentID}", h.deleteAgent)
		v1.Put("/agents/{agentID}/position", h.updateAgentPosition)
		v1.Get("/agents/{agentID}/context", h.agentContext)
		v1.Post("/agents/{agentID}/chat", h.agentChat)

		v1.Get("/economy/generators", h.listGenerators)
		v1.Post("/economy/generators/{objectID}/claim", h.claimGenerator)
		v1.Post("/economy/generators/{objectID}/recapture", h.recaptureGenerator)
		v1.Post("/economy/trades", h.proposeTrade)
		v1.Post("/economy/trades/{tradeID}/accept", h.acceptTrade)
		v1.Post("/economy/trades/{tradeID}/cancel", h.cancelTrade)

		v1.Group(func(protected chi.Router) {
			protected.Use(h.authMiddleware)
			protected.Put("/players/me/position", h.updatePlayerPosition)
			protected.Put("/players/me/ledger-address", h.setPlayerLedgerAddress)
			protected.Post("/world/items/{itemID}/collect", h.collectItem)
		})
	})

	return r
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handler) ready(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ready"})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email       string `json:"email"`
		Password    string `json:"password"`
		DisplayName string `json:"display_name"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	res, err := h.auth.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, authapp.ErrEmailInUse) {
			writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
			return
		}
		if errors.Is(err, authapp.ErrInvalidEmail) || errors.Is(err, authapp.ErrWeakPassword) {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid request"})
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	res, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) updatePlayerPosition(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	pos := h.world.ClampPosition(geo.Position{X: req.X, Y: req.Y})
	if err := h.auth.UpdatePosition(r.Context(), uid, pos); err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"x": pos.X, "y": pos.Y})
}

func (h *Handler) setPlayerLedgerAddress(w http.ResponseWriter, r *http.Request) {
	uid, ok := userIDFromCtx(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "unauthorized"})
		return
	}
	var req struct {
		Address string `json:"address"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	if err := h.auth.SetLedgerAddress(r.Context(), uid, req.Address); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"address": req.Address})
}

func (h *Handler) listAgents(w http.ResponseWriter, r *http.Request) {
	agents, err := h.agents.List(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("list agents failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": agents})
}

func (h *Handler) createAgent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name            string  `json:"name"`
		Description     string  `json:"description"`
		DialogueAgentID string  `json:"dialogue_agent_id"`
		X               float64 `json:"x"`
		Y               float64 `json:"y"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	a, err := h.agents.Create(r.Context(), req.Name, req.Description, req.DialogueAgentID, geo.Position{X: req.X, Y: req.Y})
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handler) getAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}
	a, err := h.agents.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, agentapp.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "agent not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) deleteAgent(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}
	if err := h.agents.Delete(r.Context(), id); err != nil {
		if errors.Is(err, agentapp.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "agent not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"deleted": id})
}

func (h *Handler) updateAgentPosition(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}
	var req struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	a, err := h.agents.UpdatePosition(r.Context(), id, geo.Position{X: req.X, Y: req.Y})
	if err != nil {
		if errors.Is(err, agentapp.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "agent not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handler) agentContext(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}
	radius, _ := strconv.ParseFloat(r.URL.Query().Get("radius"), 64)
	decision := r.URL.Query().Get("decision") == "true"

	var text string
	var err error
	if decision {
		text, err = h.briefing.SynthesizeForDecision(r.Context(), id, radius)
	} else {
		text, err = h.briefing.Synthesize(r.Context(), id, radius)
	}
	if err != nil {
		if errors.Is(err, agentapp.ErrNotFound) || errors.Is(err, briefingapp.ErrAgentNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "agent not found"})
			return
		}
		h.logger.Error().Err(err).Str("agent_id", id.String()).Msg("context synthesis failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agent_id": id, "context": text})
}

func (h *Handler) agentChat(w http.ResponseWriter, r *http.Request) {
	id, ok := h.agentID(w, r)
	if !ok {
		return
	}
	if h.dialogue == nil || !h.dialogue.Enabled() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"error": "dialogue backend not configured"})
		return
	}
	var req struct {
		Message string  `json:"message"`
		Radius  float64 `json:"radius"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "message is required"})
		return
	}

	a, err := h.agents.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, agentapp.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "agent not found"})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}

	contextText, err := h.briefing.Synthesize(r.Context(), id, req.Radius)
	if err != nil {
		h.logger.Error().Err(err).Str("agent_id", id.String()).Msg("context synthesis failed")
		writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "internal error"})
		return
	}

	reply, err := h.dialogue.Converse(r.Context(), a.Description, contextText, req.Message)
	if err != nil {
		h.logger.Error().Err(err).Str("agent_id", id.String()).Msg("dialogue failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "dialogue backend failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"agent_id": id, "reply": reply})
}

func (h *Handler) worldState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.world.State())
}

func (h *Handler) collectItem(w http.ResponseWriter, r *http.Request) {
	itemID := chi.URLParam(r, "itemID")
	var req struct {
		CollectedBy string `json:"collected_by"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.CollectedBy) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "collected_by is required"})
		return
	}
	item, ok := h.world.CollectItem(itemID, req.CollectedBy)
	if !ok {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "item missing, not interactive, or already collected"})
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (h *Handler) listGenerators(w http.ResponseWriter, r *http.Request) {
	if h.matchID == "" {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "no active match"})
		return
	}
	gens, err := h.economy.ListGeneratorsForMatch(r.Context(), h.matchID)
	if err != nil {
		h.logger.Error().Err(err).Msg("list generators failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "ledger unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"items": gens})
}

func (h *Handler) claimGenerator(w http.ResponseWriter, r *http.Request) {
	objectID := chi.URLParam(r, "objectID")
	var req struct {
		AgentID string `json:"agent_id"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	signerKey, ok := h.signerForAgent(w, r, req.AgentID)
	if !ok {
		return
	}
	if err := h.chain.ClaimGenerator(r.Context(), signerKey, objectID); err != nil {
		h.logger.Warn().Err(err).Str("generator", objectID).Msg("claim failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "claim rejected by ledger"})
		return
	}
	h.reconcileAfterMutation(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"claimed": objectID})
}

func (h *Handler) recaptureGenerator(w http.ResponseWriter, r *http.Request) {
	objectID := chi.URLParam(r, "objectID")
	var req struct {
		AgentID string `json:"agent_id"`
		Memory  string `json:"memory"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid agent_id"})
		return
	}
	a, err := h.agents.GetByID(r.Context(), agentID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "agent not found"})
		return
	}

	// The justification heuristic is advisory: it shapes the response but
	// never blocks the ledger call.
	justified := false
	if h.matchID != "" {
		if gens, lerr := h.economy.ListGeneratorsForMatch(r.Context(), h.matchID); lerr == nil {
			for _, g := range gens {
				if g.ObjectID == objectID {
					justified = economyapp.RecaptureJustified(g, a.Address, req.Memory)
					break
				}
			}
		}
	}

	if a.PrivateKey == "" {
		writeJSON(w, http.StatusConflict, map[string]any{"error": "agent has no ledger account"})
		return
	}
	if err := h.chain.RecaptureGenerator(r.Context(), a.PrivateKey, objectID); err != nil {
		h.logger.Warn().Err(err).Str("generator", objectID).Msg("recapture failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "recapture rejected by ledger"})
		return
	}
	h.reconcileAfterMutation(r.Context())

	resp := map[string]any{"recaptured": objectID, "justified": justified}
	if !justified {
		resp["warning"] = "recapture was not justified by the provided memory"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) proposeTrade(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AgentID string             `json:"agent_id"`
		Target  string             `json:"target"`
		Offer   ledger.ResourceSet `json:"offer"`
		Request ledger.ResourceSet `json:"request"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Target) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "target is required"})
		return
	}
	if req.Offer.IsZero() && req.Request.IsZero() {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "trade must move at least one resource"})
		return
	}
	signerKey, ok := h.signerForAgent(w, r, req.AgentID)
	if !ok {
		return
	}
	tradeID, err := h.chain.ProposeTrade(r.Context(), signerKey, h.matchID, req.Target, req.Offer, req.Request)
	if err != nil {
		h.logger.Warn().Err(err).Msg("propose trade failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "trade rejected by ledger"})
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"trade_id": tradeID})
}

func (h *Handler) acceptTrade(w http.ResponseWriter, r *http.Request) {
	h.settleTrade(w, r, h.chain.AcceptTrade, "accepted")
}

func (h *Handler) cancelTrade(w http.ResponseWriter, r *http.Request) {
	h.settleTrade(w, r, h.chain.CancelTrade, "cancelled")
}

func (h *Handler) settleTrade(w http.ResponseWriter, r *http.Request, call func(context.Context, string, string) error, verb string) {
	tradeID := chi.URLParam(r, "tradeID")
	var req struct {
		AgentID string `json:"agent_id"`
	}
	if !h.decodeBody(w, r, &req) {
		return
	}
	signerKey, ok := h.signerForAgent(w, r, req.AgentID)
	if !ok {
		return
	}
	if err := call(r.Context(), signerKey, tradeID); err != nil {
		h.logger.Warn().Err(err).Str("trade", tradeID).Msg("trade settlement failed")
		writeJSON(w, http.StatusBadGateway, map[string]any{"error": "trade settlement rejected by ledger"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{verb: tradeID})
}

func (h *Handler) signerForAgent(w http.ResponseWriter, r *http.Request, rawAgentID string) (string, bool) {
	agentID, err := uuid.Parse(rawAgentID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid agent_id"})
		return "", false
	}
	signerKey, err := h.agents.SignerKey(r.Context(), agentID)
	if err != nil {
		if errors.Is(err, agentapp.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "agent not found"})
			return "", false
		}
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error()})
		return "", false
	}
	return signerKey, true
}

// reconcileAfterMutation refreshes the display projections after a ledger
// mutation. Best effort: a failed sync only delays the next one.
func (h *Handler) reconcileAfterMutation(ctx context.Context) {
	if h.matchID == "" {
		return
	}
	if _, err := h.economy.SyncGeneratorsToWorld(ctx, h.matchID); err != nil {
		h.logger.Warn().Err(err).Msg("post-mutation reconcile failed")
	}
}

func (h *Handler) agentID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "agentID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid agent id"})
		return uuid.Nil, false
	}
	return id, true
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(_ *http.Request) bool {
		return true
	},
}

func (h *Handler) worldWS(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		authHeader := r.Header.Get("Authorization")
		token = strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing token"})
		return
	}
	uid, err := h.auth.ParseToken(token)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := h.world.RegisterClient(conn, uid)
	go h.writePump(client)
	h.readPump(r.Context(), client)
}

// readPump drains the connection; the world feed is broadcast-only and
// inbound frames exist just to keep the read deadline alive.
func (h *Handler) readPump(ctx context.Context, client *worldapp.Client) {
	defer h.world.UnregisterClient(ctx, client)
	if client.Conn == nil {
		return
	}
	client.Conn.SetReadLimit(2048)
	_ = client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		_ = client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})
	for {
		if _, _, err := client.Conn.ReadMessage(); err != nil {
			return
		}
		_ = client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	}
}

func (h *Handler) writePump(client *worldapp.Client) {
	if client.Conn == nil {
		return
	}
	ticker := time.NewTicker(20 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case msg, ok := <-client.Send:
			if !ok {
				_ = client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			_ = client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
		if token == "" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "missing bearer token"})
			return
		}
		uid, err := h.auth.ParseToken(token)
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "invalid token"})
			return
		}
		ctx := context.WithValue(r.Context(), userIDContextKey, uid)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userIDFromCtx(ctx context.Context) (uuid.UUID, bool) {
	v := ctx.Value(userIDContextKey)
	uid, ok := v.(uuid.UUID)
	return uid, ok
}

func (h *Handler) cors(next http.Handler) http.Handler {
	origin := h.corsOrigin
	if origin == "" {
		origin = "*"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization,Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid json"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
