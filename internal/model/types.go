package model

// Core domain types for the charging advisor.

// Persona is a customer's behavioral archetype. Unknown tags fall back to
// Neutral behavior.
type Persona string

const (
	PersonaEcoConscious    Persona = "EcoConscious"
	PersonaCostSensitive   Persona = "CostSensitive"
	PersonaStressed        Persona = "Stressed"
	PersonaDislikesDriving Persona = "DislikesDriving"
	PersonaNeutral         Persona = "Neutral"
)

// Node is a point on the road network.
type Node struct {
	ID     string  `json:"id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	ZoneID string  `json:"zoneId"`
}

// Edge is a declared road segment. The graph is built only from declared
// edges; no reverse edge is synthesized.
type Edge struct {
	FromNode string  `json:"fromNode"`
	ToNode   string  `json:"toNode"`
	Length   float64 `json:"length"` // km
}

// EnergySource is one production source in a zone's static mix.
type EnergySource struct {
	Production float64 `json:"production"`
	IsGreen    bool    `json:"isGreen"`
}

// Zone is a geographic partition with its own price and energy mix.
type Zone struct {
	ID        string                  `json:"id"`
	BasePrice float64                 `json:"basePrice"`
	Sources   map[string]EnergySource `json:"sources,omitempty"`
}

// ChargingStation describes one station on the map.
type ChargingStation struct {
	NodeID            string  `json:"nodeId"`
	ZoneID            string  `json:"zoneId"`
	Operational       bool    `json:"operational"`
	AvailableChargers int     `json:"availableChargers"`
	GreenEnergyPct    float64 `json:"greenEnergyPercentage"` // static fallback
}

// Customer is one roster entry. ChargeRemaining is a fraction of MaxCharge.
type Customer struct {
	CustomerID       string  `json:"customerId"`
	Persona          Persona `json:"persona"`
	FromNode         string  `json:"fromNode"`
	ToNode           string  `json:"toNode"`
	DepartureTick    int     `json:"departureTick"`
	MaxCharge        float64 `json:"maxCharge"` // kWh
	ChargeRemaining  float64 `json:"chargeRemaining"`
	ConsumptionPerKm float64 `json:"energyConsumptionPerKm"`
	VehicleType      string  `json:"type"`
}

// ChargeKwh converts the remaining-charge fraction to kWh.
func (c Customer) ChargeKwh() float64 { return c.MaxCharge * c.ChargeRemaining }

// Customer states reported by the simulator.
const (
	StateHome                = "Home"
	StateTraveling           = "Traveling"
	StateTransitioningToNode = "TransitioningToNode"
	StateTransitioningToEdge = "TransitioningToEdge"
	StateWaitingForCharger   = "WaitingForCharger"
	StateCharging            = "Charging"
	StateDoneCharging        = "DoneCharging"
	StateDestinationReached  = "DestinationReached"
	StateBatteryDepleted     = "RanOutOfJuice"
)

// ChargingAdvice is a single station recommendation on the wire.
type ChargingAdvice struct {
	NodeID   string  `json:"nodeId"`
	ChargeTo float64 `json:"chargeTo"` // fraction of capacity
}

// Recommendation is one customer's advice for a tick. An empty
// ChargingRecommendations slice means "proceed on the default path".
type Recommendation struct {
	CustomerID              string           `json:"customerId"`
	ChargingRecommendations []ChargingAdvice `json:"chargingRecommendations"`
}

// TickInput groups the recommendations activating at one tick.
type TickInput struct {
	Tick                    int              `json:"tick"`
	CustomerRecommendations []Recommendation `json:"customerRecommendations,omitempty"`
}

// GameInput is the cumulative schedule submitted to the simulator; it is also
// the persisted replay/audit artifact.
type GameInput struct {
	MapName    string      `json:"mapName"`
	PlayToTick int         `json:"playToTick,omitempty"`
	Ticks      []TickInput `json:"ticks"`
}

// CustomerTickLog is one telemetry row for a customer. Path is the simulator's
// last known route and may be empty while traveling on an edge.
type CustomerTickLog struct {
	Tick            int      `json:"tick"`
	State           string   `json:"state"`
	Node            string   `json:"node,omitempty"`
	Edge            string   `json:"edge,omitempty"`
	ChargeRemaining float64  `json:"chargeRemaining"`
	Path            []string `json:"path,omitempty"`
}

// CustomerLog is a customer's cumulative telemetry.
type CustomerLog struct {
	CustomerID string            `json:"customerId"`
	Persona    Persona           `json:"persona"`
	Logs       []CustomerTickLog `json:"logs"`
}

// SourceProduction is a zone's per-source production at one tick.
type SourceProduction struct {
	Production float64 `json:"production"`
	IsGreen    bool    `json:"isGreen"`
}

// ZoneTickLog is one zone's production breakdown at one tick.
type ZoneTickLog struct {
	ZoneID          string                      `json:"zoneId"`
	TotalProduction float64                     `json:"totalProduction"`
	TotalRevenue    float64                     `json:"totalRevenue,omitempty"`
	WeatherType     int                         `json:"weatherType,omitempty"`
	SourceInfo      map[string]SourceProduction `json:"sourceinfo,omitempty"`
}

// TickZoneLog is the per-zone energy log for one tick. The simulator returns
// these cumulatively; entries are unique per tick and kept sorted ascending.
type TickZoneLog struct {
	Tick  int           `json:"tick"`
	Zones []ZoneTickLog `json:"zones"`
}

// Occupant is a customer observed on a node or edge, with terminal-state
// markers and vehicle parameters.
type Occupant struct {
	ID                     string  `json:"id"`
	State                  string  `json:"state"`
	MaxCharge              float64 `json:"maxCharge,omitempty"`
	EnergyConsumptionPerKm float64 `json:"energyConsumptionPerKm,omitempty"`
}

// NodeOccupancy lists the customers currently at a node.
type NodeOccupancy struct {
	ID        string     `json:"id"`
	Customers []Occupant `json:"customers,omitempty"`
}

// EdgeOccupancy lists the customers currently on an edge.
type EdgeOccupancy struct {
	FromNode  string     `json:"fromNode"`
	ToNode    string     `json:"toNode"`
	Customers []Occupant `json:"customers,omitempty"`
}

// MapState is the simulator's per-node/edge occupancy view.
type MapState struct {
	Nodes []NodeOccupancy `json:"nodes"`
	Edges []EdgeOccupancy `json:"edges"`
}

// Snapshot is one simulator response. Score fields are reporting-only; core
// decisions never consume them.
type Snapshot struct {
	Score                   float64       `json:"score"`
	KwhRevenue              float64       `json:"kwhRevenue"`
	CustomerCompletionScore float64       `json:"customerCompletionScore"`
	CustomerLogs            []CustomerLog `json:"customerLogs"`
	ZoneLogs                []TickZoneLog `json:"zoneLogs"`
	Map                     MapState      `json:"map"`
}
