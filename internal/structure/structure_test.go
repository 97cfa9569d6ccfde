package structure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/world"
)

func writeTemplate(t *testing.T, dataDir, rel, body string) {
	t.Helper()
	path := filepath.Join(dataDir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("creating template dir: %v", err)
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("writing template: %v", err)
	}
}

func TestHasTemplate(t *testing.T) {
	dataDir := t.TempDir()
	writeTemplate(t, dataDir, "structures/wall/basic_wall.json",
		`{"name":"basic_wall","blocks":[]}`)

	p := NewProvider(dataDir, "structures/wall/basic_wall.json", "structures/build/center.json")
	if !p.HasTemplate("structures/wall/basic_wall.json") {
		t.Error("expected wall template to exist")
	}
	if p.HasTemplate("structures/build/center.json") {
		t.Error("expected center template to be missing")
	}
	if p.HasTemplate("") {
		t.Error("empty path should never exist")
	}
	if p.HasWallTemplates() {
		t.Error("HasWallTemplates should require both templates")
	}

	writeTemplate(t, dataDir, "structures/build/center.json",
		`{"name":"center","blocks":[]}`)
	if !p.HasWallTemplates() {
		t.Error("expected both templates present")
	}
}

func TestPlaceRotation(t *testing.T) {
	dataDir := t.TempDir()
	writeTemplate(t, dataDir, "tpl.json",
		`{"name":"tpl","blocks":[{"x":1,"y":0,"z":2,"block":"stone"}]}`)
	p := NewProvider(dataDir, "tpl.json", "tpl.json")

	cases := []struct {
		dir  domain.Direction
		x, z int
	}{
		{domain.DirSouth, 1, 2},
		{domain.DirWest, -2, 1},
		{domain.DirNorth, -1, -2},
		{domain.DirEast, 2, -1},
	}
	for _, tc := range cases {
		w := world.NewWorld()
		base := world.BlockPos{World: "world", X: 10, Y: 64, Z: 10}
		if err := p.Place(w, "tpl.json", base, tc.dir); err != nil {
			t.Fatalf("Place(%s): %v", tc.dir, err)
		}
		got := w.BlockAt(world.BlockPos{World: "world", X: 10 + tc.x, Y: 64, Z: 10 + tc.z})
		if got != "stone" {
			t.Errorf("facing %s: block at offset (%d,%d) = %q, want stone", tc.dir, tc.x, tc.z, got)
		}
		if w.BlockCount() != 1 {
			t.Errorf("facing %s: placed %d blocks, want 1", tc.dir, w.BlockCount())
		}
	}
}

func TestPlaceMissingTemplate(t *testing.T) {
	p := NewProvider(t.TempDir(), "wall.json", "center.json")
	w := world.NewWorld()
	err := p.Place(w, "nope.json", world.BlockPos{World: "world"}, domain.DirSouth)
	if err == nil {
		t.Fatal("expected error for missing template")
	}
}

func TestBuildWallGeometry(t *testing.T) {
	dataDir := t.TempDir()
	writeTemplate(t, dataDir, "structures/wall/basic_wall.json",
		`{"name":"basic_wall","blocks":[{"x":1,"y":0,"z":2,"block":"stone_bricks"}]}`)
	writeTemplate(t, dataDir, "structures/build/center.json",
		`{"name":"center","blocks":[{"x":0,"y":0,"z":0,"block":"lodestone"}]}`)
	p := NewProvider(dataDir, "structures/wall/basic_wall.json", "structures/build/center.json")

	w := world.NewWorld()
	territory := domain.Territory{
		World:   "world",
		CenterX: 0,
		CenterY: 64,
		CenterZ: 0,
		Size:    23,
	}
	yMin, yMax := 60, 80

	// Pre-fill the interior so cleared air is observable.
	w.Fill("world", -7, yMin, -7, 7, yMax, 7, "stone")

	if !p.BuildWall(w, territory, yMin, yMax) {
		t.Fatal("BuildWall failed with templates present")
	}

	at := func(x, y, z int) string {
		return w.BlockAt(world.BlockPos{World: "world", X: x, Y: y, Z: z})
	}

	// Perimeter ring: size 23 spans x,z in [-12,12]; the inner hole spans
	// [-8,8]. The ring is bedrock across the full vertical range.
	for _, y := range []int{yMin, (yMin + yMax) / 2, yMax} {
		if got := at(12, y, 12); got != world.BlockBedrock {
			t.Errorf("outer corner at y=%d = %q, want bedrock", y, got)
		}
	}
	if got := at(10, yMin+1, 0); got != world.BlockBedrock {
		t.Errorf("ring interior column = %q, want bedrock", got)
	}
	if got := at(8, yMax, 8); got == world.BlockBedrock {
		t.Error("inner hole corner should not be bedrock")
	}

	// Walkway ring: [-11,11] minus [-9,9], grass at yMin only. It overlaps
	// the bedrock ring, so the floor there ends up grass.
	if got := at(10, yMin, 0); got != world.BlockGrass {
		t.Errorf("walkway floor = %q, want grass", got)
	}

	// Interior: [-7,7] grass floor at yMin, air above.
	if got := at(5, yMin, 5); got != world.BlockGrass {
		t.Errorf("interior floor = %q, want grass", got)
	}
	if got := at(5, yMin+3, 5); got != world.BlockAir {
		t.Errorf("interior above floor = %q, want air", got)
	}
	if got := at(2, 70, -2); got != world.BlockAir {
		t.Errorf("center column = %q, want air", got)
	}

	// Templates paste at one block above the claim center.
	if got := at(0, 65, 0); got != "lodestone" {
		t.Errorf("center template block = %q, want lodestone", got)
	}
	if got := at(1, 65, 2); got != "stone_bricks" {
		t.Errorf("wall template block = %q, want stone_bricks", got)
	}
}

func TestBuildWallMissingTemplates(t *testing.T) {
	p := NewProvider(t.TempDir(), "structures/wall/basic_wall.json", "structures/build/center.json")
	w := world.NewWorld()
	territory := domain.Territory{World: "world", CenterY: 64, Size: 23}

	if p.BuildWall(w, territory, 60, 80) {
		t.Fatal("BuildWall should fail without templates")
	}
	if w.BlockCount() != 0 {
		t.Errorf("world modified despite missing templates: %d blocks", w.BlockCount())
	}
}

func TestBuildWallCorruptTemplate(t *testing.T) {
	dataDir := t.TempDir()
	writeTemplate(t, dataDir, "structures/wall/basic_wall.json",
		`{"name":"wall","blocks":[{"x":0,"y":1,"z":0,"block":"lodestone"}]}`)
	// The center template exists but does not parse; the terraform must not
	// have started by the time the failure surfaces.
	writeTemplate(t, dataDir, "structures/build/center.json", "not json")

	p := NewProvider(dataDir, "structures/wall/basic_wall.json", "structures/build/center.json")
	w := world.NewWorld()
	territory := domain.Territory{World: "world", CenterY: 64, Size: 23}

	if p.BuildWall(w, territory, 60, 80) {
		t.Fatal("BuildWall should fail on an unparseable template")
	}
	if w.BlockCount() != 0 {
		t.Errorf("world modified despite corrupt template: %d blocks", w.BlockCount())
	}
}
