package domain

import "testing"

func TestPlace_Name(t *testing.T) {
	p := Place{CountryISO: "PL", CityAliases: []string{"Warszawa", "Warsaw"}}
	if got := p.Name(); got != "Warszawa" {
		t.Errorf("Name() = %q, want %q", got, "Warszawa")
	}

	empty := Place{CountryISO: "PL"}
	if got := empty.Name(); got != "PL" {
		t.Errorf("Name() without aliases = %q, want %q", got, "PL")
	}
}

func TestPlace_MatchesLocation(t *testing.T) {
	p := Place{CountryISO: "PL", CityAliases: []string{"Warszawa", "Warsaw"}}

	tests := []struct {
		name     string
		locality string
		station  string
		want     bool
	}{
		{"locality exact match", "Warszawa", "Station 12", true},
		{"locality case-insensitive", "warszawa", "Station 12", true},
		{"station name contains alias", "", "Warsaw-Centrum", true},
		{"station name case-insensitive", "", "WARSAW kondratowicza", true},
		{"alias substring of locality not enough", "Warszawka", "Station 12", false},
		{"no match", "Kraków", "Kraków-Bulwarowa", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		if got := p.MatchesLocation(tt.locality, tt.station); got != tt.want {
			t.Errorf("%s: MatchesLocation(%q, %q) = %v, want %v",
				tt.name, tt.locality, tt.station, got, tt.want)
		}
	}
}

func TestParseParameter(t *testing.T) {
	for _, name := range []string{"pm25", "pm10", "o3", "no2"} {
		if _, ok := ParseParameter(name); !ok {
			t.Errorf("ParseParameter(%q) not recognized", name)
		}
	}
	if _, ok := ParseParameter("co"); ok {
		t.Error("ParseParameter(\"co\") recognized, want rejected")
	}
}
