package atmos

import (
	"math"

	"github.com/pthm-cable/anatomy/config"
)

// Environment resolves the gas mixture surrounding a world position.
type Environment interface {
	MixtureAt(x, y float64) *GasMixture
}

// TileEnvironment is a grid of tiles, each created from a template mixture on
// first access. Gas exhaled into a tile stays there.
type TileEnvironment struct {
	template *GasMixture
	tiles    map[[2]int]*GasMixture
}

// NewTileEnvironment builds an environment whose tiles start as copies of template.
func NewTileEnvironment(template *GasMixture) *TileEnvironment {
	return &TileEnvironment{template: template, tiles: make(map[[2]int]*GasMixture)}
}

// NewTileEnvironmentFromConfig builds the ambient environment from config.
func NewTileEnvironmentFromConfig(cfg config.AtmosphereConfig) *TileEnvironment {
	tmpl := NewMixture(cfg.Volume, cfg.Temperature)
	for gas, n := range cfg.Moles {
		tmpl.SetMoles(gas, n)
	}
	return NewTileEnvironment(tmpl)
}

// MixtureAt returns the live mixture of the tile containing (x, y).
func (e *TileEnvironment) MixtureAt(x, y float64) *GasMixture {
	key := [2]int{int(math.Floor(x)), int(math.Floor(y))}
	tile, ok := e.tiles[key]
	if !ok {
		tile = e.template.Clone()
		e.tiles[key] = tile
	}
	return tile
}

// Vacuum is an environment with no gas anywhere.
type Vacuum struct{}

// MixtureAt returns a fresh empty mixture.
func (Vacuum) MixtureAt(x, y float64) *GasMixture { return NewMixture(2500, TCMB) }
