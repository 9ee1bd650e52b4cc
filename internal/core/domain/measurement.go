package domain

import "time"

type Parameter string

const (
	ParameterPM25 Parameter = "pm25"
	ParameterPM10 Parameter = "pm10"
	ParameterO3   Parameter = "o3"
	ParameterNO2  Parameter = "no2"
)

// RequiredParameters are the pollutants every place is queried for.
var RequiredParameters = []Parameter{
	ParameterPM25,
	ParameterPM10,
	ParameterO3,
	ParameterNO2,
}

// ParseParameter maps an API parameter name to a known Parameter.
func ParseParameter(name string) (Parameter, bool) {
	switch Parameter(name) {
	case ParameterPM25, ParameterPM10, ParameterO3, ParameterNO2:
		return Parameter(name), true
	default:
		return "", false
	}
}

// Measurement represents a single air quality reading from a station.
type Measurement struct {
	City      string
	Location  string
	Parameter Parameter
	Value     float64
	Unit      string
	Timestamp time.Time
}

// SensorInfo describes what a station sensor measures.
type SensorInfo struct {
	Parameter Parameter
	Unit      string
}
