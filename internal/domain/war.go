package domain

// WarPhase is the countdown phase of an active war.
type WarPhase string

const (
	WarPrepare WarPhase = "PREPARE"
	WarActive  WarPhase = "ACTIVE"
)

// WarMatchEntry is a nation waiting in the matchmaking queue.
type WarMatchEntry struct {
	NationID      int64 `json:"nation_id"`
	NationLevel   int   `json:"nation_level"`
	WaitedSeconds int   `json:"waited_seconds"`
}

// WarState is the shared countdown record for a war between two nations.
// The same value is kept under both nation ids.
type WarState struct {
	NationA          int64    `json:"nation_a"`
	NationB          int64    `json:"nation_b"`
	Phase            WarPhase `json:"phase"`
	RemainingSeconds int      `json:"remaining_seconds"`
}

// Opponent returns the other side of the war.
func (w WarState) Opponent(nationID int64) int64 {
	if w.NationA == nationID {
		return w.NationB
	}
	return w.NationA
}
