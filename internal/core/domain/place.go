package domain

import "strings"

// Place identifies a monitored area: a country plus the city names
// (and spellings) its stations may be registered under.
type Place struct {
	CountryISO  string
	CityAliases []string
}

// Name returns the primary city alias, used for logging and reporting.
func (p Place) Name() string {
	if len(p.CityAliases) == 0 {
		return p.CountryISO
	}
	return p.CityAliases[0]
}

// MatchesLocation reports whether a station locality/name pair belongs
// to this place. Locality must match an alias exactly; the station name
// only needs to contain one.
func (p Place) MatchesLocation(locality, name string) bool {
	locality = strings.ToLower(locality)
	name = strings.ToLower(name)

	for _, alias := range p.CityAliases {
		alias = strings.ToLower(alias)
		if locality == alias {
			return true
		}
		if alias != "" && strings.Contains(name, alias) {
			return true
		}
	}
	return false
}
