package boundary

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeographyByName(t *testing.T) {
	g, ok := GeographyByName("TRACT")
	require.True(t, ok)
	assert.Equal(t, "tract", g.Name)
	assert.False(t, g.National)

	g, ok = GeographyByName("cbsa")
	require.True(t, ok)
	assert.True(t, g.National)

	_, ok = GeographyByName("block")
	assert.False(t, ok)
}

func TestDownloadURL(t *testing.T) {
	tract, _ := GeographyByName("tract")
	url := DownloadURL("https://www2.census.gov/geo/tiger", tract, 2023, FIPSCodes["MD"])
	assert.Equal(t, "https://www2.census.gov/geo/tiger/GENZ2023/shp/cb_2023_24_tract_500k.zip", url)

	// Trailing slash on the base is tolerated.
	url = DownloadURL("https://www2.census.gov/geo/tiger/", tract, 2023, FIPSCodes["MD"])
	assert.Equal(t, "https://www2.census.gov/geo/tiger/GENZ2023/shp/cb_2023_24_tract_500k.zip", url)

	// National products use "us" instead of a state FIPS.
	cbsa, _ := GeographyByName("cbsa")
	url = DownloadURL("https://www2.census.gov/geo/tiger", cbsa, 2023, "")
	assert.Equal(t, "https://www2.census.gov/geo/tiger/GENZ2023/shp/cb_2023_us_cbsa_500k.zip", url)
}

func TestValidateStates(t *testing.T) {
	fips, err := ValidateStates([]string{"md", "VA", "dc"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"MD": "24", "VA": "51", "DC": "11"}, fips)

	_, err = ValidateStates([]string{"MD", "ZZ"})
	assert.Error(t, err)
}

func TestAllStateAbbrs(t *testing.T) {
	abbrs := AllStateAbbrs()
	assert.Len(t, abbrs, 51, "50 states plus DC")
	assert.Equal(t, "AK", abbrs[0])
	assert.Equal(t, "WY", abbrs[len(abbrs)-1])
}
