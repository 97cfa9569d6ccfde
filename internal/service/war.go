package service

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/M-LunaFarm/NationSystem/internal/config"
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/storage"
	"github.com/google/uuid"
)

// WarService owns the matchmaking queue and the per-war countdown state
// machine. Queue and war state live only in memory; a restart evicts both,
// which is acceptable because wars carry no persistent outcome. All map
// access happens under a single mutex, so a nation entering a war while an
// operator clears the queue still resolves to exactly one of the two.
type WarService struct {
	cfg     *config.Config
	store   *storage.Store
	nations *NationService
	events  *Events

	mu        sync.Mutex
	matchOpen bool
	queue     map[int64]*domain.WarMatchEntry
	wars      map[int64]*domain.WarState
}

// NewWarService creates the service with intake set from config.
func NewWarService(cfg *config.Config, store *storage.Store, nations *NationService, events *Events) *WarService {
	return &WarService{
		cfg:       cfg,
		store:     store,
		nations:   nations,
		events:    events,
		matchOpen: cfg.War.MatchOpen,
		queue:     make(map[int64]*domain.WarMatchEntry),
		wars:      make(map[int64]*domain.WarState),
	}
}

// Enqueue puts the caller's nation into the matchmaking queue.
func (s *WarService) Enqueue(ctx context.Context, player uuid.UUID) Status {
	s.mu.Lock()
	open := s.matchOpen
	s.mu.Unlock()
	if !open {
		return StatusMatchClosed
	}

	member, err := s.store.GetMemberByPlayer(ctx, player)
	if err != nil {
		return StatusError
	}
	if member == nil {
		return StatusNotInNation
	}
	if member.Role != domain.RoleOwner {
		return StatusOwnerOnly
	}
	nation, err := s.store.GetNationByID(ctx, member.NationID)
	if err != nil || nation == nil {
		return StatusNotInNation
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.matchOpen {
		return StatusMatchClosed
	}
	if _, atWar := s.wars[nation.ID]; atWar {
		return StatusAlreadyQueued
	}
	if _, queued := s.queue[nation.ID]; queued {
		return StatusAlreadyQueued
	}
	s.queue[nation.ID] = &domain.WarMatchEntry{NationID: nation.ID, NationLevel: nation.Level}
	return StatusSuccess
}

// TickMatching advances every queue entry's wait by one second and tries to
// match. Tolerance widens with waiting time per the configured bands; the
// first opponent within tolerance wins, not the best. Matching continues
// over the remaining queue, so a deep queue can pair off several wars in
// the same tick.
func (s *WarService) TickMatching(ctx context.Context) {
	s.mu.Lock()
	if !s.matchOpen || len(s.queue) == 0 {
		s.mu.Unlock()
		return
	}
	for _, entry := range s.queue {
		entry.WaitedSeconds++
	}

	var started []*domain.WarState
	for _, entry := range s.queue {
		// The entry may already have been claimed as an opponent this tick.
		if _, waiting := s.queue[entry.NationID]; !waiting {
			continue
		}
		tolerance := s.cfg.AllowedLevelDiff(entry.WaitedSeconds)
		for _, other := range s.queue {
			if other.NationID == entry.NationID {
				continue
			}
			if intAbs(entry.NationLevel-other.NationLevel) <= tolerance {
				started = append(started, s.startWarLocked(entry.NationID, other.NationID))
				break
			}
		}
	}
	s.mu.Unlock()

	for _, war := range started {
		s.nations.SendNationMessage(ctx, war.NationA, "[Nation] War matchmaking complete.")
		s.nations.SendNationMessage(ctx, war.NationB, "[Nation] War matchmaking complete.")
		s.events.Emit(domain.EventWarMatched, war.NationA, domain.WarEvent{
			NationA:          war.NationA,
			NationB:          war.NationB,
			Phase:            war.Phase,
			RemainingSeconds: war.RemainingSeconds,
		})
	}
}

// TickWars decrements every war's countdown, flips PREPARE to ACTIVE when
// the battle window is reached, fires the pre-battle notices, and ends wars
// at zero as a draw, removing both sides in one step.
func (s *WarService) TickWars(ctx context.Context) {
	type notice struct {
		state   domain.WarState
		text    string
		flipped bool
	}
	var notices []notice
	var ended []domain.WarState

	s.mu.Lock()
	// Each war is stored under both nation ids; visit it once per tick.
	seen := make(map[int64]bool)
	for _, state := range s.wars {
		if seen[state.NationA] || seen[state.NationB] {
			continue
		}
		seen[state.NationA] = true
		seen[state.NationB] = true

		state.RemainingSeconds--
		if state.RemainingSeconds <= 0 {
			delete(s.wars, state.NationA)
			delete(s.wars, state.NationB)
			ended = append(ended, *state)
			continue
		}
		if state.Phase == domain.WarPrepare {
			if state.RemainingSeconds <= s.cfg.War.BattleSeconds {
				state.Phase = domain.WarActive
				notices = append(notices, notice{*state, "[Nation] The war has begun!", true})
			} else {
				switch state.RemainingSeconds - s.cfg.War.BattleSeconds {
				case 120:
					notices = append(notices, notice{*state, "[Nation] The war begins in 2 minutes.", false})
				case 60:
					notices = append(notices, notice{*state, "[Nation] The war begins in 1 minute.", false})
				case 10:
					notices = append(notices, notice{*state, "[Nation] The war begins in 10 seconds.", false})
				}
			}
		}
		s.emitCountdown(*state)
	}
	s.mu.Unlock()

	for _, n := range notices {
		s.nations.SendNationMessage(ctx, n.state.NationA, n.text)
		s.nations.SendNationMessage(ctx, n.state.NationB, n.text)
		if n.flipped {
			s.events.Emit(domain.EventWarPhase, n.state.NationA, domain.WarEvent{
				NationA:          n.state.NationA,
				NationB:          n.state.NationB,
				Phase:            n.state.Phase,
				RemainingSeconds: n.state.RemainingSeconds,
			})
		}
	}
	for _, state := range ended {
		text := "[Nation] War over: draw"
		s.nations.SendNationMessage(ctx, state.NationA, text)
		s.nations.SendNationMessage(ctx, state.NationB, text)
		s.events.Emit(domain.EventWarEnded, state.NationA, domain.WarEvent{
			NationA: state.NationA,
			NationB: state.NationB,
			Phase:   state.Phase,
		})
	}
}

// WarState returns the war a nation is in, if any.
func (s *WarService) WarState(nationID int64) (domain.WarState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.wars[nationID]
	if !ok {
		return domain.WarState{}, false
	}
	return *state, true
}

// IsInWar reports whether a nation has an active war.
func (s *WarService) IsInWar(nationID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.wars[nationID]
	return ok
}

// QueueSize returns the number of waiting nations.
func (s *WarService) QueueSize() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// MatchOpen reports whether matchmaking accepts entries.
func (s *WarService) MatchOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.matchOpen
}

// SetMatchOpen opens or closes intake. In-progress wars are unaffected.
func (s *WarService) SetMatchOpen(open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matchOpen = open
}

// RemoveFromQueue evicts one nation from the queue.
func (s *WarService) RemoveFromQueue(nationID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.queue, nationID)
}

// ClearMatching empties the queue. In-progress wars are unaffected.
func (s *WarService) ClearMatching() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue = make(map[int64]*domain.WarMatchEntry)
}

// startWarLocked removes both sides from the queue and records the shared
// war state under both nation ids. Caller holds the mutex.
func (s *WarService) startWarLocked(nationA, nationB int64) *domain.WarState {
	delete(s.queue, nationA)
	delete(s.queue, nationB)
	state := &domain.WarState{
		NationA:          nationA,
		NationB:          nationB,
		Phase:            domain.WarPrepare,
		RemainingSeconds: s.cfg.War.PrepareSeconds + s.cfg.War.BattleSeconds,
	}
	s.wars[nationA] = state
	s.wars[nationB] = state
	log.Printf("war: matched nation %d vs nation %d, %d seconds total", nationA, nationB, state.RemainingSeconds)
	return state
}

// emitCountdown drives the visible per-participant indicator. Caller holds
// the mutex; Emit never blocks.
func (s *WarService) emitCountdown(state domain.WarState) {
	total := s.cfg.War.PrepareSeconds + s.cfg.War.BattleSeconds
	s.events.Emit(domain.EventWarCountdown, state.NationA, domain.WarCountdownEvent{
		Phase:            state.Phase,
		RemainingSeconds: state.RemainingSeconds,
		TotalSeconds:     total,
	})
	s.events.Emit(domain.EventWarCountdown, state.NationB, domain.WarCountdownEvent{
		Phase:            state.Phase,
		RemainingSeconds: state.RemainingSeconds,
		TotalSeconds:     total,
	})
}

// CountdownLabel renders the indicator title for a war.
func CountdownLabel(state domain.WarState) string {
	if state.Phase == domain.WarPrepare {
		return fmt.Sprintf("Preparing for war... (%ds)", state.RemainingSeconds)
	}
	return fmt.Sprintf("War in progress... (%ds)", state.RemainingSeconds)
}
