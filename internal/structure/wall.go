package structure

import (
	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/world"
)

// BuildWall terraforms a territory's wall: a bedrock perimeter ring, a grass
// walkway ring, a flattened interior, and the wall and center templates
// pasted at the claim center. yMin and yMax bound the vertical work range.
// Both templates are loaded up front, so a missing or unparseable file
// returns false before any block is touched.
func (p *Provider) BuildWall(w *world.World, t domain.Territory, yMin, yMax int) bool {
	wallTpl, err := p.load(p.wallPath)
	if err != nil {
		return false
	}
	centerTpl, err := p.load(p.centerPath)
	if err != nil {
		return false
	}

	size := t.Size
	outer := domain.AreaFromCenter(t.CenterX, t.CenterZ, size)
	inner := domain.AreaFromCenter(t.CenterX, t.CenterZ, size-8)
	grassOuter := domain.AreaFromCenter(t.CenterX, t.CenterZ, size-2)
	grassInner := domain.AreaFromCenter(t.CenterX, t.CenterZ, size-6)
	clearInner := domain.AreaFromCenter(t.CenterX, t.CenterZ, size-10)

	fillRing(w, t.World, outer, inner, yMin, yMax, world.BlockBedrock)
	fillRing(w, t.World, grassOuter, grassInner, yMin, yMin, world.BlockGrass)
	clearColumn(w, t.World, t.CenterX, t.CenterY, t.CenterZ, 2, yMax)
	fillArea(w, t.World, clearInner, yMin+1, yMax, world.BlockAir)
	fillArea(w, t.World, clearInner, yMin, yMin, world.BlockGrass)

	paste := world.BlockPos{World: t.World, X: t.CenterX, Y: t.CenterY + 1, Z: t.CenterZ}
	placeTemplate(w, wallTpl, paste, domain.DirSouth)
	placeTemplate(w, centerTpl, paste, domain.DirSouth)
	return true
}

func fillArea(w *world.World, worldName string, area domain.BlockArea, yMin, yMax int, material string) {
	for x := area.MinX; x <= area.MaxX; x++ {
		for z := area.MinZ; z <= area.MaxZ; z++ {
			for y := yMin; y <= yMax; y++ {
				w.SetBlock(world.BlockPos{World: worldName, X: x, Y: y, Z: z}, material)
			}
		}
	}
}

func fillRing(w *world.World, worldName string, outer, inner domain.BlockArea, yMin, yMax int, material string) {
	for x := outer.MinX; x <= outer.MaxX; x++ {
		for z := outer.MinZ; z <= outer.MaxZ; z++ {
			if inner.Contains(x, z) {
				continue
			}
			for y := yMin; y <= yMax; y++ {
				w.SetBlock(world.BlockPos{World: worldName, X: x, Y: y, Z: z}, material)
			}
		}
	}
}

func clearColumn(w *world.World, worldName string, cx, cy, cz, radius, yMax int) {
	for x := cx - radius; x <= cx+radius; x++ {
		for z := cz - radius; z <= cz+radius; z++ {
			for y := cy + 1; y <= yMax; y++ {
				w.SetBlock(world.BlockPos{World: worldName, X: x, Y: y, Z: z}, world.BlockAir)
			}
		}
	}
}
