package openaq

import "github.com/vietddude/airwatch/internal/core/domain"

// Country is one entry from GET /countries.
type Country struct {
	ID   int64  `json:"id"`
	Code string `json:"code"`
	Name string `json:"name"`
}

// Location is one monitoring station from GET /locations.
type Location struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Locality string   `json:"locality"`
	Sensors  []Sensor `json:"sensors"`
}

// Sensor describes one instrument at a station.
type Sensor struct {
	ID        int64           `json:"id"`
	Parameter SensorParameter `json:"parameter"`
}

// SensorParameter names what a sensor measures and in which unit.
type SensorParameter struct {
	Name  string `json:"name"`
	Units string `json:"units"`
}

// LatestReading is one entry from GET /locations/{id}/latest.
type LatestReading struct {
	SensorsID int64       `json:"sensorsId"`
	Value     float64     `json:"value"`
	Datetime  ReadingTime `json:"datetime"`
}

// ReadingTime carries the reading timestamp in UTC.
type ReadingTime struct {
	UTC string `json:"utc"`
}

type countriesResponse struct {
	Results []Country `json:"results"`
}

type locationsResponse struct {
	Results []Location `json:"results"`
}

type latestResponse struct {
	Results []LatestReading `json:"results"`
}

// sensorParameterMap maps sensor ids to recognized parameters and
// units. Sensors measuring unknown parameters are skipped.
func (l Location) sensorParameterMap() map[int64]domain.SensorInfo {
	mapping := make(map[int64]domain.SensorInfo)
	for _, sensor := range l.Sensors {
		if sensor.Parameter.Name == "" {
			continue
		}
		param, ok := domain.ParseParameter(sensor.Parameter.Name)
		if !ok {
			continue
		}
		unit := sensor.Parameter.Units
		if unit == "" {
			unit = "µg/m³"
		}
		mapping[sensor.ID] = domain.SensorInfo{Parameter: param, Unit: unit}
	}
	return mapping
}
