package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/service"
	"github.com/M-LunaFarm/NationSystem/internal/world"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// SessionRegistry tracks connected play sessions by player UUID so
// notifications can be routed to the right socket.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*PlaySession
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{sessions: make(map[uuid.UUID]*PlaySession)}
}

func (r *SessionRegistry) add(s *PlaySession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if old, ok := r.sessions[s.player]; ok {
		close(old.send)
	}
	r.sessions[s.player] = s
}

func (r *SessionRegistry) remove(s *PlaySession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.sessions[s.player] == s {
		delete(r.sessions, s.player)
		close(s.send)
	}
}

// Deliver pushes a notification text to the player's session, dropping it
// when the player is offline or the buffer is full. Never blocks.
func (r *SessionRegistry) Deliver(player uuid.UUID, text string) {
	r.mu.RLock()
	s, ok := r.sessions[player]
	r.mu.RUnlock()
	if !ok {
		return
	}

	data, err := json.Marshal(map[string]string{"action": "message", "text": text})
	if err != nil {
		return
	}
	select {
	case s.send <- data:
	default:
	}
}

// PlaySession is one player's game connection.
type PlaySession struct {
	router *Router
	conn   *websocket.Conn
	send   chan []byte
	player uuid.UUID
	name   string
}

// playRequest is the envelope of every client-to-server message.
type playRequest struct {
	Action string `json:"action"`

	// join
	UUID string `json:"uuid,omitempty"`
	Name string `json:"name,omitempty"`

	// positions (join, move, claim, wall, place)
	World string `json:"world,omitempty"`
	X     int    `json:"x,omitempty"`
	Y     int    `json:"y,omitempty"`
	Z     int    `json:"z,omitempty"`

	// action arguments
	NationName string               `json:"nation_name,omitempty"`
	Target     string               `json:"target,omitempty"`
	Message    string               `json:"message,omitempty"`
	Type       string               `json:"type,omitempty"`
	Facing     string               `json:"facing,omitempty"`
	Amount     int64                `json:"amount,omitempty"`
	QuestID    int                  `json:"quest_id,omitempty"`
	Item       string               `json:"item,omitempty"`
	Count      int                  `json:"count,omitempty"`
	Slots      []*service.ItemStack `json:"slots,omitempty"`
}

// handlePlaySocket upgrades HTTP to WebSocket for a player session. The
// first message must be a join carrying the player identity and position.
func (r *Router) handlePlaySocket(w http.ResponseWriter, req *http.Request) {
	conn, err := upgrader.Upgrade(w, req, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	s := &PlaySession{
		router: r,
		conn:   conn,
		send:   make(chan []byte, 64),
	}
	// The request context is canceled as soon as this handler returns, so
	// the session runs on the router's context instead.
	go s.run(r.baseCtx)
}

func (s *PlaySession) run(ctx context.Context) {
	defer s.conn.Close()

	// First frame must be join
	s.conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	var join playRequest
	if err := s.conn.ReadJSON(&join); err != nil || join.Action != "join" {
		s.writeNow(map[string]string{"action": "join", "error": "join required"})
		return
	}
	player, err := uuid.Parse(join.UUID)
	if err != nil || join.Name == "" {
		s.writeNow(map[string]string{"action": "join", "error": "uuid and name required"})
		return
	}
	s.player = player
	s.name = join.Name

	pos := world.BlockPos{World: join.World, X: join.X, Y: join.Y, Z: join.Z}
	err = s.router.gateway.Do(ctx, func(w *world.World) error {
		w.Join(player, join.Name, pos, time.Now())
		return nil
	})
	if err != nil {
		s.writeNow(map[string]string{"action": "join", "error": "world unavailable"})
		return
	}

	s.router.sessions.add(s)
	defer func() {
		s.router.sessions.remove(s)
		leaveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.router.gateway.Do(leaveCtx, func(w *world.World) error {
			w.Leave(player)
			return nil
		})
	}()

	s.writeNow(map[string]string{"action": "join", "status": string(service.StatusSuccess)})
	log.Printf("Player %s (%s) connected", join.Name, player)

	go s.writePump()

	s.conn.SetReadLimit(64 * 1024)
	for {
		s.conn.SetReadDeadline(time.Now().Add(5 * time.Minute))
		var req playRequest
		if err := s.conn.ReadJSON(&req); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNoStatusReceived) {
				log.Printf("Play socket error for %s: %v", s.name, err)
			}
			return
		}
		s.dispatch(ctx, req)
	}
}

// dispatch handles one request and queues the response.
func (s *PlaySession) dispatch(ctx context.Context, req playRequest) {
	svc := s.router.svc
	pos := world.BlockPos{World: req.World, X: req.X, Y: req.Y, Z: req.Z}

	var result interface{}
	switch req.Action {
	case "move":
		s.router.gateway.Do(ctx, func(w *world.World) error {
			w.MovePlayer(s.player, pos)
			return nil
		})
		return

	case "create_nation":
		result = svc.Nations.CreateNation(ctx, s.player, req.NationName)
	case "nation_info":
		result = svc.Nations.Membership(ctx, s.player)
	case "invite":
		target, err := s.resolvePlayer(ctx, req.Target)
		if err != nil {
			result = map[string]string{"status": string(service.StatusError), "error": "unknown player"}
			break
		}
		result = svc.Nations.Invite(ctx, s.player, target)
	case "accept":
		result = svc.Nations.AcceptInvite(ctx, s.player)
	case "decline":
		result = map[string]string{"status": string(svc.Nations.DeclineInvite(s.player))}
	case "leave":
		result = map[string]string{"status": string(svc.Nations.Leave(ctx, s.player))}
	case "toggle_chat":
		enabled, status := svc.Nations.ToggleChat(ctx, s.player)
		result = map[string]interface{}{"status": string(status), "enabled": enabled}
	case "chat":
		svc.Nations.SendNationChat(ctx, s.player, s.name, req.Message)
		return

	case "claim":
		result = svc.Territories.CreateTerritory(ctx, s.player, pos, req.NationName)
	case "territories":
		result = svc.Territories.ListTerritories(ctx, s.player)
	case "build_wall":
		result = map[string]string{"status": string(svc.Territories.BuildWall(ctx, s.player, pos))}
	case "place_building":
		result = svc.Buildings.PlaceBuilding(ctx, s.player, pos, domain.BuildingType(req.Type), req.Facing)

	case "war_queue":
		result = map[string]string{"status": string(svc.Wars.Enqueue(ctx, s.player))}

	case "bank_balance":
		result = svc.Bank.Balance(ctx, s.player)
	case "bank_history":
		result = svc.Bank.History(ctx, s.player, req.Count)
	case "bank_deposit":
		result = svc.Bank.Deposit(ctx, s.player, req.Amount)
	case "bank_withdraw":
		result = svc.Bank.Withdraw(ctx, s.player, req.Amount)

	case "level_info":
		result = svc.Levels.Info(ctx, s.player)
	case "level_up":
		result = svc.Levels.LevelUp(ctx, s.player)

	case "present":
		result = svc.Presents.Claim(ctx, s.player)

	case "storage_open":
		result = svc.Storage.Open(ctx, s.player)
	case "storage_save":
		result = map[string]string{"status": string(svc.Storage.Save(ctx, s.player, req.Slots))}

	case "shop_catalog":
		listings, status := svc.Shop.Catalog(ctx, s.player)
		result = map[string]interface{}{"status": string(status), "listings": listings}
	case "shop_buy":
		result = svc.Shop.Buy(ctx, s.player, domain.BuildingType(req.Type))

	case "quests":
		result = svc.Quests.ListDaily(ctx, s.player)
	case "quest_draw":
		result = svc.Quests.GetOrCreateDaily(ctx, s.player)
	case "quest_deliver":
		result = svc.Quests.DeliverItems(ctx, s.player, req.QuestID, req.Item, req.Count)

	default:
		result = map[string]string{"error": "unknown action"}
	}

	s.reply(req.Action, result)
}

// resolvePlayer maps an online player name to a UUID via the world.
func (s *PlaySession) resolvePlayer(ctx context.Context, name string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.router.gateway.Do(ctx, func(w *world.World) error {
		p := w.PlayerByName(name)
		if p == nil || !p.Online {
			return errUnknownPlayer
		}
		id = p.UUID
		return nil
	})
	return id, err
}

var errUnknownPlayer = errors.New("unknown player")

// reply wraps the result with its action name and queues it for sending.
func (s *PlaySession) reply(action string, result interface{}) {
	envelope := map[string]interface{}{"action": action, "result": result}
	data, err := json.Marshal(envelope)
	if err != nil {
		log.Printf("Error marshaling %s reply: %v", action, err)
		return
	}
	select {
	case s.send <- data:
	default:
		log.Printf("Play socket buffer full for %s, dropping %s reply", s.name, action)
	}
}

// writeNow writes synchronously, used before the write pump starts.
func (s *PlaySession) writeNow(v interface{}) {
	s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	s.conn.WriteJSON(v)
}

// writePump sends queued messages to the socket.
func (s *PlaySession) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
