package analysis

import "strings"

// DimensionID indexes the fixed trait registry.
type DimensionID int

const (
	ClutchGene DimensionID = iota
	KillerInstinct
	FlowState
	MentalFortress
	Resilience
	ChampionAura
	LeadershipGravity
	GrowthVelocity

	numDimensions
)

// Dimension is an immutable registry entry. Alpha controls how much
// leverage amplifies a feature's weight, and only applies when
// LeverageSensitive is set.
type Dimension struct {
	ID                DimensionID `json:"-"`
	Name              string      `json:"name"`
	Slug              string      `json:"slug"`
	LeverageSensitive bool        `json:"leverage_sensitive"`
	Alpha             float64     `json:"alpha"`
}

var registry = [numDimensions]Dimension{
	ClutchGene:        {ID: ClutchGene, Name: "Clutch Gene", Slug: "clutch_gene", LeverageSensitive: true, Alpha: 0.6},
	KillerInstinct:    {ID: KillerInstinct, Name: "Killer Instinct", Slug: "killer_instinct", LeverageSensitive: true, Alpha: 0.4},
	FlowState:         {ID: FlowState, Name: "Flow State", Slug: "flow_state", LeverageSensitive: true, Alpha: 0.3},
	MentalFortress:    {ID: MentalFortress, Name: "Mental Fortress", Slug: "mental_fortress", LeverageSensitive: true, Alpha: 0.5},
	Resilience:        {ID: Resilience, Name: "Resilience", Slug: "resilience", LeverageSensitive: true, Alpha: 0.35},
	ChampionAura:      {ID: ChampionAura, Name: "Champion Aura", Slug: "champion_aura"},
	LeadershipGravity: {ID: LeadershipGravity, Name: "Leadership Gravity", Slug: "leadership_gravity"},
	GrowthVelocity:    {ID: GrowthVelocity, Name: "Growth Velocity", Slug: "growth_velocity"},
}

// Dimensions returns the registry in scoring order.
func Dimensions() []Dimension {
	out := make([]Dimension, len(registry))
	copy(out, registry[:])
	return out
}

// Get returns the registry entry for id.
func (id DimensionID) Get() Dimension {
	if id < 0 || id >= numDimensions {
		return Dimension{ID: id}
	}
	return registry[id]
}

func (id DimensionID) String() string {
	return id.Get().Name
}

// LookupDimension finds a dimension by display name or slug.
func LookupDimension(name string) (Dimension, bool) {
	key := strings.ToLower(strings.TrimSpace(name))
	for _, d := range registry {
		if strings.ToLower(d.Name) == key || d.Slug == key {
			return d, true
		}
	}
	return Dimension{}, false
}

// contextMultiplier scales a feature's weight by situational pressure.
// Stable traits ignore leverage entirely.
func (d Dimension) contextMultiplier(leverage float64) float64 {
	if !d.LeverageSensitive {
		return 1
	}
	return 1 + d.Alpha*leverage
}
