package world

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Block materials used by wall and structure placement.
const (
	BlockAir     = "air"
	BlockBedrock = "bedrock"
	BlockGrass   = "grass_block"
)

// BlockPos is an absolute block position.
type BlockPos struct {
	World string
	X     int
	Y     int
	Z     int
}

// Player is an online player as seen by the world. Position and balance are
// only meaningful while Online is true.
type Player struct {
	UUID     uuid.UUID
	Name     string
	Online   bool
	Pos      BlockPos
	Balance  int64
	JoinedAt time.Time
}

// World holds the mutable game-world state: the sparse block grid, online
// players and their wallets. It is NOT safe for concurrent use; all access
// must go through the Gateway, which serializes every task on one goroutine.
type World struct {
	blocks  map[BlockPos]string
	players map[uuid.UUID]*Player
}

// NewWorld creates an empty world.
func NewWorld() *World {
	return &World{
		blocks:  make(map[BlockPos]string),
		players: make(map[uuid.UUID]*Player),
	}
}

// --- Block grid ---

// BlockAt returns the material at pos; unset positions are air.
func (w *World) BlockAt(pos BlockPos) string {
	if mat, ok := w.blocks[pos]; ok {
		return mat
	}
	return BlockAir
}

// SetBlock places a material at pos. Setting air removes the entry so the
// grid stays sparse.
func (w *World) SetBlock(pos BlockPos, material string) {
	if material == BlockAir {
		delete(w.blocks, pos)
		return
	}
	w.blocks[pos] = material
}

// Fill sets every block in the inclusive box to material.
func (w *World) Fill(world string, x1, y1, z1, x2, y2, z2 int, material string) {
	x1, x2 = ordered(x1, x2)
	y1, y2 = ordered(y1, y2)
	z1, z2 = ordered(z1, z2)
	for x := x1; x <= x2; x++ {
		for y := y1; y <= y2; y++ {
			for z := z1; z <= z2; z++ {
				w.SetBlock(BlockPos{World: world, X: x, Y: y, Z: z}, material)
			}
		}
	}
}

// BlockCount returns how many non-air blocks the grid holds.
func (w *World) BlockCount() int {
	return len(w.blocks)
}

// --- Players ---

// Join marks a player online at the given position, creating the wallet on
// first sight.
func (w *World) Join(id uuid.UUID, name string, pos BlockPos, now time.Time) *Player {
	p, ok := w.players[id]
	if !ok {
		p = &Player{UUID: id}
		w.players[id] = p
	}
	p.Name = name
	p.Online = true
	p.Pos = pos
	p.JoinedAt = now
	return p
}

// Leave marks a player offline. The wallet survives.
func (w *World) Leave(id uuid.UUID) {
	if p, ok := w.players[id]; ok {
		p.Online = false
	}
}

// PlayerByUUID returns a player, online or not, or nil when never seen.
func (w *World) PlayerByUUID(id uuid.UUID) *Player {
	return w.players[id]
}

// PlayerByName returns an online player by name, case-insensitive.
func (w *World) PlayerByName(name string) *Player {
	for _, p := range w.players {
		if p.Online && strings.EqualFold(p.Name, name) {
			return p
		}
	}
	return nil
}

// OnlinePlayers returns every online player.
func (w *World) OnlinePlayers() []*Player {
	var online []*Player
	for _, p := range w.players {
		if p.Online {
			online = append(online, p)
		}
	}
	return online
}

// MovePlayer updates an online player's position.
func (w *World) MovePlayer(id uuid.UUID, pos BlockPos) {
	if p, ok := w.players[id]; ok && p.Online {
		p.Pos = pos
	}
}

// --- Wallets ---

// Balance returns a player's wallet balance; unknown players hold zero.
func (w *World) Balance(id uuid.UUID) int64 {
	if p, ok := w.players[id]; ok {
		return p.Balance
	}
	return 0
}

// Deposit adds to a player's wallet, creating it if needed.
func (w *World) Deposit(id uuid.UUID, amount int64) {
	p, ok := w.players[id]
	if !ok {
		p = &Player{UUID: id}
		w.players[id] = p
	}
	p.Balance += amount
}

// Withdraw removes from a player's wallet, failing on insufficient funds.
func (w *World) Withdraw(id uuid.UUID, amount int64) error {
	p, ok := w.players[id]
	if !ok || p.Balance < amount {
		return fmt.Errorf("insufficient funds: have %d, need %d", w.Balance(id), amount)
	}
	p.Balance -= amount
	return nil
}

func ordered(a, b int) (int, int) {
	if a > b {
		return b, a
	}
	return a, b
}
