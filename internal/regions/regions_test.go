package regions

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetStatesList(t *testing.T) {
	states, err := GetStatesList()
	require.NoError(t, err)
	assert.Len(t, states, 27)
}

func TestLookupBySiglaAndName(t *testing.T) {
	states, err := Default()
	require.NoError(t, err)

	sp, ok := states.Lookup("SP")
	require.True(t, ok)
	assert.Equal(t, "SUDESTE", sp.Region)

	rs, ok := states.Lookup("RIO GRANDE DO SUL")
	require.True(t, ok)
	assert.Equal(t, "RS", rs.Sigla)
	assert.Equal(t, "SUL", rs.Region)

	_, ok = states.Lookup("XX")
	assert.False(t, ok)
}

func TestRegions(t *testing.T) {
	states, err := Default()
	require.NoError(t, err)

	regions := states.Regions()
	sort.Strings(regions)
	assert.Equal(t, []string{"CENTRO-OESTE", "NORDESTE", "NORTE", "SUDESTE", "SUL"}, regions)
}

func TestExpandRegion(t *testing.T) {
	assert.Equal(t, "SUDESTE", ExpandRegion("SE"))
	assert.Equal(t, "CENTRO-OESTE", ExpandRegion("CO"))
	assert.Equal(t, "NORTE", ExpandRegion("NORTE"))
	assert.Equal(t, "", ExpandRegion(""))
}
