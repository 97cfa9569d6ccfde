package domain

import (
	"strings"
	"time"
)

// WallStatus tracks the territory wall lifecycle. The status only ever
// advances PENDING -> BUILT.
type WallStatus string

const (
	WallPending WallStatus = "PENDING"
	WallBuilt   WallStatus = "BUILT"
)

// Territory is a square land claim owned by a nation, centered on a block
// column. A PENDING territory is time-boxed: if its wall is not built before
// WallExpiresAt, the expiry sweep deletes it.
type Territory struct {
	ID            int64      `json:"id"`
	NationID      int64      `json:"nation_id"`
	World         string     `json:"world"`
	CenterX       int        `json:"center_x"`
	CenterY       int        `json:"center_y"`
	CenterZ       int        `json:"center_z"`
	Size          int        `json:"size"`
	WallStatus    WallStatus `json:"wall_status"`
	WallExpiresAt *time.Time `json:"wall_expires_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Area returns the claim's footprint on the XZ plane.
func (t Territory) Area() BlockArea {
	return AreaFromCenter(t.CenterX, t.CenterZ, t.Size)
}

// Contains reports whether the given world position falls inside the claim.
func (t Territory) Contains(world string, x, z int) bool {
	if !equalWorld(t.World, world) {
		return false
	}
	return t.Area().Contains(x, z)
}

// BlockArea is an inclusive rectangle on the XZ plane.
type BlockArea struct {
	MinX, MaxX int
	MinZ, MaxZ int
}

// AreaFromCenter builds the footprint for a square claim of the given size.
// The half-extent is (size-1)/2+1, matching the wall geometry.
func AreaFromCenter(centerX, centerZ, size int) BlockArea {
	c := ((size - 1) / 2) + 1
	return BlockArea{
		MinX: centerX - c,
		MaxX: centerX + c,
		MinZ: centerZ - c,
		MaxZ: centerZ + c,
	}
}

// Contains reports whether (x,z) lies inside the area, bounds inclusive.
func (a BlockArea) Contains(x, z int) bool {
	return x >= a.MinX && x <= a.MaxX && z >= a.MinZ && z <= a.MaxZ
}

// Intersects reports whether two areas overlap.
func (a BlockArea) Intersects(b BlockArea) bool {
	xOverlap := a.MinX <= b.MaxX && a.MaxX >= b.MinX
	zOverlap := a.MinZ <= b.MaxZ && a.MaxZ >= b.MinZ
	return xOverlap && zOverlap
}

func equalWorld(a, b string) bool {
	return strings.EqualFold(a, b)
}
