// Package boundary fetches administrative boundary layers (cartographic
// boundary shapefiles) from the Census Bureau by state, geography level, and
// vintage year, caching the parsed result locally.
package boundary

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
)

// boundaryEPSG is the CRS of all cartographic boundary files: NAD83 lon/lat,
// tagged here as 4326 since the pipeline treats them interchangeably at this
// resolution.
const boundaryEPSG = 4326

// Geography describes a cartographic boundary product.
type Geography struct {
	Name     string // e.g., "tract"
	National bool   // true = single national file, false = per-state
	KeyCol   string // unique region identifier column in the shapefile
}

// Geographies lists the supported boundary levels.
var Geographies = []Geography{
	{Name: "tract", KeyCol: "geoid"},
	{Name: "county", KeyCol: "geoid"},
	{Name: "place", KeyCol: "geoid"},
	{Name: "cbsa", National: true, KeyCol: "geoid"},
}

// GeographyByName looks up a geography by name (case-insensitive).
func GeographyByName(name string) (Geography, bool) {
	for _, g := range Geographies {
		if strings.EqualFold(g.Name, name) {
			return g, true
		}
	}
	return Geography{}, false
}

// FIPSCodes maps state abbreviation to 2-digit FIPS code for all 50 states + DC.
var FIPSCodes = map[string]string{
	"AL": "01", "AK": "02", "AZ": "04", "AR": "05", "CA": "06",
	"CO": "08", "CT": "09", "DE": "10", "DC": "11", "FL": "12",
	"GA": "13", "HI": "15", "ID": "16", "IL": "17", "IN": "18",
	"IA": "19", "KS": "20", "KY": "21", "LA": "22", "ME": "23",
	"MD": "24", "MA": "25", "MI": "26", "MN": "27", "MS": "28",
	"MO": "29", "MT": "30", "NE": "31", "NV": "32", "NH": "33",
	"NJ": "34", "NM": "35", "NY": "36", "NC": "37", "ND": "38",
	"OH": "39", "OK": "40", "OR": "41", "PA": "42", "RI": "44",
	"SC": "45", "SD": "46", "TN": "47", "TX": "48", "UT": "49",
	"VT": "50", "VA": "51", "WA": "53", "WV": "54", "WI": "55",
	"WY": "56",
}

// AllStateAbbrs returns a sorted list of state abbreviations (50 states + DC).
func AllStateAbbrs() []string {
	abbrs := make([]string, 0, len(FIPSCodes))
	for abbr := range FIPSCodes {
		abbrs = append(abbrs, abbr)
	}
	sort.Strings(abbrs)
	return abbrs
}

// DownloadPath builds the path of a cartographic boundary ZIP below the
// TIGER root. National geographies use "us" in place of a state FIPS.
func DownloadPath(g Geography, year int, stateFIPS string) string {
	area := stateFIPS
	if g.National {
		area = "us"
	}
	return fmt.Sprintf("GENZ%d/shp/cb_%d_%s_%s_500k.zip", year, year, area, g.Name)
}

// DownloadURL builds the full HTTP download URL for a boundary product.
func DownloadURL(baseURL string, g Geography, year int, stateFIPS string) string {
	return strings.TrimSuffix(baseURL, "/") + "/" + DownloadPath(g, year, stateFIPS)
}

// ValidateStates checks all abbreviations before any work starts and returns
// the matching FIPS codes.
func ValidateStates(states []string) (map[string]string, error) {
	fips := make(map[string]string, len(states))
	for _, st := range states {
		code, ok := FIPSCodes[strings.ToUpper(st)]
		if !ok {
			return nil, eris.Errorf("boundary: unknown state %q", st)
		}
		fips[strings.ToUpper(st)] = code
	}
	return fips, nil
}
