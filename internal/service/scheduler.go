package service

import (
	"context"
	"log"
	"sync"
	"time"
)

// Scheduler drives the periodic background work: wall expiry, building
// completion and the two war ticks. Each concern runs its own loop so a
// slow expiry sweep never delays the one-second war countdown.
type Scheduler struct {
	territories *TerritoryService
	buildings   *BuildingService
	wars        *WarService

	done chan struct{}
	wg   sync.WaitGroup
}

// NewScheduler creates the background scheduler.
func NewScheduler(territories *TerritoryService, buildings *BuildingService, wars *WarService) *Scheduler {
	return &Scheduler{
		territories: territories,
		buildings:   buildings,
		wars:        wars,
		done:        make(chan struct{}),
	}
}

// Start launches the background loops.
func (s *Scheduler) Start(ctx context.Context) {
	s.wg.Add(3)
	go s.expiryLoop(ctx)
	go s.buildingLoop(ctx)
	go s.warLoop(ctx)
	log.Println("Scheduler: started")
}

// Stop signals the loops and waits for them to finish.
func (s *Scheduler) Stop() {
	log.Println("Scheduler: stopping...")
	close(s.done)
	s.wg.Wait()
	log.Println("Scheduler: shutdown complete")
}

// expiryLoop sweeps expired PENDING territories once a minute.
func (s *Scheduler) expiryLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	// Initial sweep so a restart doesn't delay overdue expiries
	s.territories.ExpirePending(ctx)

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.territories.ExpirePending(ctx)
		}
	}
}

// buildingLoop promotes due BUILDING rows to ACTIVE every second.
func (s *Scheduler) buildingLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.buildings.ProcessCompletion(ctx)
		}
	}
}

// warLoop advances matchmaking waits and war countdowns every second.
func (s *Scheduler) warLoop(ctx context.Context) {
	defer s.wg.Done()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.wars.TickMatching(ctx)
			s.wars.TickWars(ctx)
		}
	}
}
