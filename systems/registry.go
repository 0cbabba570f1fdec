package systems

// SystemInfo describes a simulation system for logs and perf output.
type SystemInfo struct {
	ID          string // Internal identifier (used for perf tracking)
	Name        string // Display name
	Description string
	Category    string // Grouping (e.g., "physiology", "world")
}

// Perf ids of the systems run by the simulation step, in step order.
const (
	IDRespiration = "respiration"
	IDDigestion   = "digestion"
	IDBloodstream = "bloodstream"
	IDReactions   = "reactions"
	IDThermal     = "thermal"
	IDStatus      = "status"
	IDTelemetry   = "telemetry"
)

// SystemRegistry holds metadata about all systems.
// This centralizes system naming so the perf tracker and logs stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known systems.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

// registerDefaults adds the step systems in the order they run.
// Update this when adding new systems.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: IDRespiration, Name: "Respiration", Description: "Breath cycle, gas exchange and suffocation", Category: "physiology"})
	r.Register(SystemInfo{ID: IDDigestion, Name: "Digestion", Description: "Delayed stomach absorption into blood", Category: "physiology"})
	r.Register(SystemInfo{ID: IDBloodstream, Name: "Bloodstream", Description: "Regulation, bleeding and bloodloss", Category: "physiology"})
	r.Register(SystemInfo{ID: IDReactions, Name: "Reactions", Description: "Chemistry in blood, stomachs and puddles", Category: "chemistry"})
	r.Register(SystemInfo{ID: IDThermal, Name: "Thermal", Description: "Implicit and active thermoregulation", Category: "physiology"})
	r.Register(SystemInfo{ID: IDStatus, Name: "Status", Description: "Expires timed status effects", Category: "world"})
	r.Register(SystemInfo{ID: IDTelemetry, Name: "Telemetry", Description: "Windowed stats and CSV output", Category: "internal"})
}

// Register adds a system to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// GetName returns the display name for a system ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered systems.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// ByCategory returns systems filtered by category.
func (r *SystemRegistry) ByCategory(category string) []SystemInfo {
	var result []SystemInfo
	for _, info := range r.systems {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// IDs returns all system IDs in registration order.
func (r *SystemRegistry) IDs() []string {
	ids := make([]string, len(r.systems))
	for i, info := range r.systems {
		ids[i] = info.ID
	}
	return ids
}
