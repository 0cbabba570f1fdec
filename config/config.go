// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Simulation  SimulationConfig  `yaml:"simulation"`
	Population  PopulationConfig  `yaml:"population"`
	Body        BodyConfig        `yaml:"body"`
	Bloodstream BloodstreamConfig `yaml:"bloodstream"`
	Respiration RespirationConfig `yaml:"respiration"`
	Digestion   DigestionConfig   `yaml:"digestion"`
	Thermal     ThermalConfig     `yaml:"thermal"`
	Damage      DamageConfig      `yaml:"damage"`
	Atmosphere  AtmosphereConfig  `yaml:"atmosphere"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// SimulationConfig holds tick parameters.
type SimulationConfig struct {
	DT   float64 `yaml:"dt"`   // Seconds per tick
	Seed int64   `yaml:"seed"` // 0 = time-based
}

// PopulationConfig holds creature spawning parameters.
type PopulationConfig struct {
	Initial  int     `yaml:"initial"`
	Template string  `yaml:"template"` // Body template for spawned creatures
	Spacing  float64 `yaml:"spacing"`  // Distance between spawn points
}

// BodyConfig holds body-graph consequence parameters.
type BodyConfig struct {
	VitalLossDamage     float64 `yaml:"vital_loss_damage"`      // Damage applied when the last vital part is lost
	VitalLossDamageType string  `yaml:"vital_loss_damage_type"` // Damage type of that terminal event
	LegType             string  `yaml:"leg_type"`               // Part type that keeps the body standing
	BaseWalkSpeed       float64 `yaml:"base_walk_speed"`
	BaseSprintSpeed     float64 `yaml:"base_sprint_speed"`
}

// BloodstreamConfig holds blood regulation and bleeding parameters.
type BloodstreamConfig struct {
	UpdateInterval        float64            `yaml:"update_interval"`          // Seconds between bloodstream updates
	BloodMaxVolume        float64            `yaml:"blood_max_volume"`         // Blood solution capacity
	BloodReferenceVolume  float64            `yaml:"blood_reference_volume"`   // Volume considered level 1.0
	BloodReagent          string             `yaml:"blood_reagent"`            // Reagent regenerated by level regulation
	BloodRefreshAmount    float64            `yaml:"blood_refresh_amount"`     // Max units regenerated per update
	MaxBleedAmount        float64            `yaml:"max_bleed_amount"`         // Upper clamp on bleed amount
	BleedReductionAmount  float64            `yaml:"bleed_reduction_amount"`   // Bleed decay per update
	BleedPuddleThreshold  float64            `yaml:"bleed_puddle_threshold"`   // Spilled volume that becomes a puddle
	SpilledMaxVolume      float64            `yaml:"spilled_max_volume"`       // Spilled solution capacity
	BloodlossThreshold    float64            `yaml:"bloodloss_threshold"`      // Level below which bloodloss damage applies
	BloodlossDamage       map[string]float64 `yaml:"bloodloss_damage"`         // Base damage per update
	BloodlossHealDamage   map[string]float64 `yaml:"bloodloss_heal_damage"`    // Heal per update, scaled by level
	BloodlossStatus       string             `yaml:"bloodloss_status"`         // Status set while below threshold
	BloodHealedThreshold  float64            `yaml:"blood_healed_threshold"`   // Damage at or below this cauterizes
	CritBleedDivisor      float64            `yaml:"crit_bleed_divisor"`       // prob = total / divisor
	CritBleedSpillDivisor float64            `yaml:"crit_bleed_spill_divisor"` // spill = total / divisor
	DamageBleedModifiers  string             `yaml:"damage_bleed_modifiers"`   // Modifier set id in the prototype registry
}

// RespirationConfig holds breathing parameters.
type RespirationConfig struct {
	CycleDelay            float64  `yaml:"cycle_delay"`             // Seconds between inhale and exhale
	BreathVolume          float64  `yaml:"breath_volume"`           // Litres per inhale
	LungSolutionVolume    float64  `yaml:"lung_solution_volume"`    // Lung reagent buffer capacity
	BreathableGas         string   `yaml:"breathable_gas"`          // Gas whose absence suffocates
	SuffocationThreshold  float64  `yaml:"suffocation_threshold"`   // Minimum breathable moles per inhale
	SuffocationDamage     float64  `yaml:"suffocation_damage"`      // Damage per suffocating breath
	SuffocationDamageType string   `yaml:"suffocation_damage_type"` // Damage type of suffocation
	InternalsSlots        []string `yaml:"internals_slots"`         // Equipment slots that connect a breathing apparatus
	TankOutputPressure    float64  `yaml:"tank_output_pressure"`    // kPa released by a connected tank
	Consumption           float64  `yaml:"consumption"`             // Breathable reagent metabolised from blood per breath
}

// DigestionConfig holds stomach parameters.
type DigestionConfig struct {
	UpdateInterval    float64 `yaml:"update_interval"`
	DigestionDelay    float64 `yaml:"digestion_delay"` // Seconds between ingestion and absorption
	StomachMaxVolume  float64 `yaml:"stomach_max_volume"`
	DefaultMultiplier float64 `yaml:"default_multiplier"`
}

// ThermalConfig holds thermoregulation parameters.
type ThermalConfig struct {
	NormalTemperature float64 `yaml:"normal_temperature"` // Kelvin
	Tolerance         float64 `yaml:"tolerance"`          // Band around normal that needs no active response
	ImplicitRate      float64 `yaml:"implicit_rate"`      // Joules/s always applied toward normal
	SweatRate         float64 `yaml:"sweat_rate"`         // Joules/s removed while sweating
	ShiverRate        float64 `yaml:"shiver_rate"`        // Joules/s produced while shivering
	MetabolismHeat    float64 `yaml:"metabolism_heat"`    // Joules/s produced passively
	RadiatedHeat      float64 `yaml:"radiated_heat"`      // Joules/s lost passively
	HeatCapacity      float64 `yaml:"heat_capacity"`      // Joules per Kelvin
}

// DamageConfig holds mob-state thresholds.
type DamageConfig struct {
	CritThreshold float64 `yaml:"crit_threshold"`
	DeadThreshold float64 `yaml:"dead_threshold"`
}

// AtmosphereConfig describes the uniform ambient gas mixture.
type AtmosphereConfig struct {
	Volume      float64            `yaml:"volume"`      // Litres per tile
	Temperature float64            `yaml:"temperature"` // Kelvin
	Moles       map[string]float64 `yaml:"moles"`       // gas id -> moles per tile
}

// TelemetryConfig holds telemetry and logging parameters.
type TelemetryConfig struct {
	StatsWindow float64 `yaml:"stats_window"` // Stats window size in seconds
	PerfWindow  int     `yaml:"perf_window"`  // Ticks per perf sample window
}

// DerivedConfig holds values computed from loaded config.
type DerivedConfig struct {
	BloodUpdateTicks int // Bloodstream.UpdateInterval in ticks
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.computeDerived()

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Simulation.DT <= 0 {
		return fmt.Errorf("simulation.dt must be positive, got %v", c.Simulation.DT)
	}
	if c.Bloodstream.BloodReferenceVolume <= 0 {
		return fmt.Errorf("bloodstream.blood_reference_volume must be positive")
	}
	if c.Bloodstream.BloodMaxVolume < c.Bloodstream.BloodReferenceVolume {
		return fmt.Errorf("bloodstream.blood_max_volume (%v) below reference volume (%v)",
			c.Bloodstream.BloodMaxVolume, c.Bloodstream.BloodReferenceVolume)
	}
	if c.Thermal.HeatCapacity <= 0 {
		return fmt.Errorf("thermal.heat_capacity must be positive")
	}
	return nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.BloodUpdateTicks = ticksFor(c.Bloodstream.UpdateInterval, c.Simulation.DT)

	if c.Digestion.DefaultMultiplier == 0 {
		c.Digestion.DefaultMultiplier = 1.0
	}
	if c.Bloodstream.CritBleedDivisor == 0 {
		c.Bloodstream.CritBleedDivisor = 25
	}
	if c.Bloodstream.CritBleedSpillDivisor == 0 {
		c.Bloodstream.CritBleedSpillDivisor = 5
	}
}

func ticksFor(seconds, dt float64) int {
	n := int(seconds/dt + 0.5)
	if n < 1 {
		n = 1
	}
	return n
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
