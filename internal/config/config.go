// Package config holds the static daemon configuration: panel topology,
// the GPIO pin table, voxel volume dimensions and scan timing. It is read
// once, validated once, and passed to components as a value; nothing here
// mutates after startup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/coreman2200/funtimes-vortex/internal/hub75"
)

// Dim is a volume dimension triple.
type Dim struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
	Z int `yaml:"z"`
}

// Panel is one physical panel's projection settings.
type Panel struct {
	// Eccentricity is the panel's radial mounting offset from the rotor
	// axis, in column pitches.
	Eccentricity float64 `yaml:"eccentricity"`
	// Order names the column wiring permutation: identity | reverse |
	// interleave.
	Order string `yaml:"order,omitempty"`
}

// ChainPins is one HUB75 chain's six color pins (BCM numbers).
type ChainPins struct {
	R1 int `yaml:"r1"`
	G1 int `yaml:"g1"`
	B1 int `yaml:"b1"`
	R2 int `yaml:"r2"`
	G2 int `yaml:"g2"`
	B2 int `yaml:"b2"`
}

// Pins is the wire-level pin assignment. It must match the physical
// wiring exactly.
type Pins struct {
	Chains []ChainPins `yaml:"chains"`
	Addr   []int       `yaml:"addr"` // parallel address lines, LSB first
	Blank  int         `yaml:"blank"`
	Clock  int         `yaml:"clock"`
	Strobe int         `yaml:"strobe"`
}

type Config struct {
	Driver     string `yaml:"driver"` // "gpio" | "sim"
	HTTPAddr   string `yaml:"http_addr"`
	IngestAddr string `yaml:"ingest_addr"`
	LogLevel   string `yaml:"log_level,omitempty"`

	// Panel topology. PanelWidth/Height are per panel; Multiplex is the
	// row time-multiplex factor (rows loaded per address).
	PanelWidth  int     `yaml:"panel_width"`
	PanelHeight int     `yaml:"panel_height"`
	Multiplex   int     `yaml:"multiplex"`
	Panels      []Panel `yaml:"panels"`

	// Voxels is the logical volume resolution: x radial, y azimuth,
	// z height.
	Voxels Dim `yaml:"voxels"`

	// RotationZeroDeg aligns the volume's zero meridian with the chassis.
	RotationZeroDeg float64 `yaml:"rotation_zero_deg"`

	// SettleCycles is the signal timing margin: extra port writes holding
	// each level before the next transition. DisplayCycles is the lit hold
	// per unit of bit-plane weight. BitPlanes sets color depth (1..8).
	SettleCycles  int `yaml:"settle_cycles"`
	DisplayCycles int `yaml:"display_cycles"`
	BitPlanes     int `yaml:"bit_planes"`

	Pins Pins `yaml:"pins"`
}

// Default is the shipped two-panel rotor configuration.
func Default() Config {
	pm := hub75.DefaultPinMap()
	pins := Pins{
		Addr:   pm.Addr,
		Blank:  pm.Blank,
		Clock:  pm.Clock,
		Strobe: pm.Strobe,
	}
	for _, c := range pm.Chains {
		pins.Chains = append(pins.Chains, ChainPins{R1: c.R1, G1: c.G1, B1: c.B1, R2: c.R2, G2: c.G2, B2: c.B2})
	}
	return Config{
		Driver:          "gpio",
		HTTPAddr:        ":8080",
		IngestAddr:      ":22104",
		LogLevel:        "info",
		PanelWidth:      128,
		PanelHeight:     64,
		Multiplex:       2,
		Panels:          []Panel{{Eccentricity: 13.5}, {Eccentricity: 0.375}},
		Voxels:          Dim{X: 128, Y: 128, Z: 64},
		RotationZeroDeg: 286,
		SettleCycles:    7,
		DisplayCycles:   4,
		BitPlanes:       4,
		Pins:            pins,
	}
}

// Load reads a yaml config file over the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return &c, nil
}

// Save writes the config back out as yaml.
func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// PinMap converts the pin section into the driver's validated table.
func (c *Config) PinMap() hub75.PinMap {
	pm := hub75.PinMap{
		Addr:   c.Pins.Addr,
		Blank:  c.Pins.Blank,
		Clock:  c.Pins.Clock,
		Strobe: c.Pins.Strobe,
	}
	for _, ch := range c.Pins.Chains {
		pm.Chains = append(pm.Chains, hub75.Chain{R1: ch.R1, G1: ch.G1, B1: ch.B1, R2: ch.R2, G2: ch.G2, B2: ch.B2})
	}
	return pm
}

// Validate runs the single startup validation pass. Any error here is
// fatal; scan-out never starts on an invalid configuration.
func (c *Config) Validate() error {
	switch c.Driver {
	case "gpio", "sim":
	default:
		return fmt.Errorf("%w: unknown driver %q", hub75.ErrConfig, c.Driver)
	}
	if c.Voxels.X <= 0 || c.Voxels.Y <= 0 || c.Voxels.Z <= 0 {
		return fmt.Errorf("%w: voxel volume %dx%dx%d", hub75.ErrConfig, c.Voxels.X, c.Voxels.Y, c.Voxels.Z)
	}
	if c.PanelWidth <= 0 {
		return fmt.Errorf("%w: panel width %d", hub75.ErrConfig, c.PanelWidth)
	}
	if c.PanelHeight != c.Voxels.Z {
		return fmt.Errorf("%w: panel height %d must match voxel layers %d", hub75.ErrConfig, c.PanelHeight, c.Voxels.Z)
	}
	if len(c.Panels) == 0 {
		return fmt.Errorf("%w: no panels configured", hub75.ErrConfig)
	}
	if len(c.Panels) != len(c.Pins.Chains) {
		return fmt.Errorf("%w: %d panels on %d wired chains", hub75.ErrConfig, len(c.Panels), len(c.Pins.Chains))
	}
	if c.BitPlanes < 1 || c.BitPlanes > 8 {
		return fmt.Errorf("%w: %d bit-planes", hub75.ErrConfig, c.BitPlanes)
	}
	if c.SettleCycles < 0 || c.DisplayCycles <= 0 {
		return fmt.Errorf("%w: settle=%d display=%d", hub75.ErrConfig, c.SettleCycles, c.DisplayCycles)
	}
	pm := c.PinMap()
	if err := pm.Validate(); err != nil {
		return err
	}
	// The multiplexer constructor owns depth and factor checks.
	if _, err := hub75.NewMux(c.PanelHeight, c.Multiplex, len(pm.Addr)); err != nil {
		return err
	}
	return nil
}
