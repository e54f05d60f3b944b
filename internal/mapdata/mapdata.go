// Package mapdata loads the static run inputs: map description, customer
// roster, and charging-station roster. The station file nests its fields
// (status/capacity/location); loaders flatten everything into model types.
package mapdata

import (
	"encoding/json"
	"fmt"
	"os"

	"evadvisor/internal/model"
)

// MapFile is the parsed map description.
type MapFile struct {
	Name  string
	Nodes []model.Node
	Edges []model.Edge
	Zones []model.Zone
}

type rawMap struct {
	Name    string       `json:"name"`
	MapName string       `json:"mapName"`
	Nodes   []model.Node `json:"nodes"`
	Edges   []model.Edge `json:"edges"`
	Zones   []struct {
		ID            string                        `json:"id"`
		BasePrice     float64                       `json:"basePrice"`
		EnergySources map[string]model.EnergySource `json:"energySources"`
	} `json:"zones"`
}

// LoadMap reads a map file. The map declares every edge in both directions;
// nothing is mirrored here.
func LoadMap(path string) (MapFile, error) {
	var raw rawMap
	if err := readJSON(path, &raw); err != nil {
		return MapFile{}, fmt.Errorf("loading map: %w", err)
	}
	name := raw.Name
	if name == "" {
		name = raw.MapName
	}
	mf := MapFile{Name: name, Nodes: raw.Nodes, Edges: raw.Edges}
	for _, z := range raw.Zones {
		mf.Zones = append(mf.Zones, model.Zone{ID: z.ID, BasePrice: z.BasePrice, Sources: z.EnergySources})
	}
	return mf, nil
}

// LoadCustomers reads the customer roster.
func LoadCustomers(path string) ([]model.Customer, error) {
	var raw struct {
		Customers []model.Customer `json:"customers"`
	}
	if err := readJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("loading customers: %w", err)
	}
	for i := range raw.Customers {
		if raw.Customers[i].Persona == "" {
			raw.Customers[i].Persona = model.PersonaNeutral
		}
	}
	return raw.Customers, nil
}

type rawStation struct {
	NodeID string `json:"nodeId"`
	Status struct {
		Operational bool `json:"operational"`
	} `json:"status"`
	Capacity struct {
		AvailableChargers int `json:"availableChargers"`
	} `json:"capacity"`
	Location struct {
		ZoneID string `json:"zoneId"`
	} `json:"location"`
	ZoneEnergy struct {
		GreenEnergyPercentage float64 `json:"greenEnergyPercentage"`
	} `json:"zoneEnergy"`
}

// LoadStations reads the charging-station roster.
func LoadStations(path string) ([]model.ChargingStation, error) {
	var raw struct {
		ChargingStations []rawStation `json:"chargingStations"`
	}
	if err := readJSON(path, &raw); err != nil {
		return nil, fmt.Errorf("loading stations: %w", err)
	}
	out := make([]model.ChargingStation, 0, len(raw.ChargingStations))
	for _, s := range raw.ChargingStations {
		out = append(out, model.ChargingStation{
			NodeID:            s.NodeID,
			ZoneID:            s.Location.ZoneID,
			Operational:       s.Status.Operational,
			AvailableChargers: s.Capacity.AvailableChargers,
			GreenEnergyPct:    s.ZoneEnergy.GreenEnergyPercentage,
		})
	}
	return out, nil
}

// Forecast holds optional pre-run knowledge from a prior run on the same map:
// measured vehicle speeds and the zone energy log.
type Forecast struct {
	VehicleSpeeds map[string]float64
	ZoneLogs      []model.TickZoneLog
}

type rawForecast struct {
	VehicleSpeeds map[string]struct {
		SpeedKmPerTick float64 `json:"speed_km_per_tick"`
	} `json:"vehicleSpeeds"`
	ZoneLogs []model.TickZoneLog `json:"zoneLogs"`
}

// LoadForecast reads a prior-run data file. A missing file is not an error;
// the advisor just starts without history.
func LoadForecast(path string) (Forecast, error) {
	var raw rawForecast
	if err := readJSON(path, &raw); err != nil {
		if os.IsNotExist(err) {
			return Forecast{}, nil
		}
		return Forecast{}, fmt.Errorf("loading forecast: %w", err)
	}
	f := Forecast{ZoneLogs: raw.ZoneLogs}
	if len(raw.VehicleSpeeds) > 0 {
		f.VehicleSpeeds = make(map[string]float64, len(raw.VehicleSpeeds))
		for typ, s := range raw.VehicleSpeeds {
			if s.SpeedKmPerTick > 0 {
				f.VehicleSpeeds[typ] = s.SpeedKmPerTick
			}
		}
	}
	return f, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}
