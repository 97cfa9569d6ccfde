// Package structure loads block templates from the data directory and stamps
// them into the live world. Every placement function takes the *world.World
// directly, so it can only run inside a gateway task.
package structure

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/M-LunaFarm/NationSystem/internal/domain"
	"github.com/M-LunaFarm/NationSystem/internal/world"
)

// Template is a relocatable set of block placements. Offsets are relative to
// the paste position, facing south.
type Template struct {
	Name   string          `json:"name"`
	Blocks []TemplateBlock `json:"blocks"`
}

// TemplateBlock is one block of a template.
type TemplateBlock struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Z     int    `json:"z"`
	Block string `json:"block"`
}

// Provider resolves template paths relative to a data directory.
type Provider struct {
	dataDir    string
	wallPath   string
	centerPath string
}

// NewProvider creates a provider rooted at dataDir. wallPath and centerPath
// are the relative template paths used for wall construction.
func NewProvider(dataDir, wallPath, centerPath string) *Provider {
	return &Provider{dataDir: dataDir, wallPath: wallPath, centerPath: centerPath}
}

// HasTemplate reports whether a template file exists at the relative path.
func (p *Provider) HasTemplate(rel string) bool {
	if rel == "" {
		return false
	}
	_, err := os.Stat(filepath.Join(p.dataDir, rel))
	return err == nil
}

// HasWallTemplates reports whether both wall-construction templates exist.
func (p *Provider) HasWallTemplates() bool {
	return p.HasTemplate(p.wallPath) && p.HasTemplate(p.centerPath)
}

func (p *Provider) load(rel string) (*Template, error) {
	data, err := os.ReadFile(filepath.Join(p.dataDir, rel))
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", rel, err)
	}
	var tpl Template
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, fmt.Errorf("parsing template %s: %w", rel, err)
	}
	return &tpl, nil
}

// Place stamps the template at base, rotated for the given facing.
func (p *Provider) Place(w *world.World, rel string, base world.BlockPos, dir domain.Direction) error {
	tpl, err := p.load(rel)
	if err != nil {
		return err
	}
	placeTemplate(w, tpl, base, dir)
	return nil
}

func placeTemplate(w *world.World, tpl *Template, base world.BlockPos, dir domain.Direction) {
	for _, b := range tpl.Blocks {
		x, z := rotate(b.X, b.Z, dir)
		w.SetBlock(world.BlockPos{
			World: base.World,
			X:     base.X + x,
			Y:     base.Y + b.Y,
			Z:     base.Z + z,
		}, b.Block)
	}
}

// rotate maps a south-facing offset to the given cardinal. West is a quarter
// turn clockwise, north a half turn, east a quarter turn counterclockwise.
func rotate(x, z int, dir domain.Direction) (int, int) {
	switch dir {
	case domain.DirWest:
		return -z, x
	case domain.DirNorth:
		return -x, -z
	case domain.DirEast:
		return z, -x
	default:
		return x, z
	}
}
