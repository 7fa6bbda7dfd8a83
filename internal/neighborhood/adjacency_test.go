package neighborhood

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAdjacencyTable(t *testing.T) {
	t.Parallel()

	table, err := LoadAdjacencyTable()
	require.NoError(t, err)
	assert.Greater(t, table.Len(), 50)

	// Every listed neighbor must itself be a known area, and adjacency is
	// declared on both sides.
	for label, neighbors := range table.areas {
		for _, n := range neighbors {
			back, ok := table.areas[n]
			require.True(t, ok, "%s lists unknown area %s", label, n)
			assert.Contains(t, back, label, "%s -> %s is one-directional", label, n)
		}
	}
}

func TestAdjacent(t *testing.T) {
	t.Parallel()

	table, err := LoadAdjacencyTable()
	require.NoError(t, err)

	assert.Equal(t, []string{"ALPHABET CITY", "LOWER EAST SIDE", "GREENWICH VILLAGE", "GRAMERCY"},
		table.Adjacent("EAST VILLAGE"))
	assert.Equal(t, []string{"WILLIAMSBURG"}, table.Adjacent("greenpoint"))
	assert.Nil(t, table.Adjacent("ATLANTIS"))
}

func TestCompatible(t *testing.T) {
	t.Parallel()

	table, err := LoadAdjacencyTable()
	require.NoError(t, err)

	assert.Equal(t,
		[]string{"EAST VILLAGE", "ALPHABET CITY", "LOWER EAST SIDE", "GREENWICH VILLAGE", "GRAMERCY"},
		table.Compatible("EAST VILLAGE", true))
	assert.Equal(t, []string{"EAST VILLAGE"}, table.Compatible("east village ", false))

	// Corridor variants resolve through their base area's entry
	assert.Equal(t,
		[]string{"UPPER EAST SIDE (59-79)", "MIDTOWN EAST", "HARLEM-EAST"},
		table.Compatible("UPPER EAST SIDE (59-79)", true))

	assert.Nil(t, table.Compatible("  ", true))
}

func TestRelation(t *testing.T) {
	t.Parallel()

	table, err := LoadAdjacencyTable()
	require.NoError(t, err)

	cases := []struct {
		name      string
		subject   string
		candidate string
		want      Relation
	}{
		{"identical", "EAST VILLAGE", "EAST VILLAGE", RelationSame},
		{"case and padding", "East Village", "EAST VILLAGE  ", RelationSame},
		{"corridor variant of same base", "GREENWICH VILLAGE", "GREENWICH VILLAGE-CENTRAL", RelationSame},
		{"adjacent areas", "EAST VILLAGE", "GRAMERCY", RelationAdjacent},
		{"adjacent through base entry", "UPPER EAST SIDE (59-79)", "MIDTOWN EAST", RelationAdjacent},
		{"unrelated areas", "EAST VILLAGE", "RIVERDALE", RelationNone},
		{"unknown candidate", "EAST VILLAGE", "ATLANTIS", RelationNone},
		{"empty subject", "", "EAST VILLAGE", RelationNone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tc.want, table.Relation(tc.subject, tc.candidate))
		})
	}
}

func TestRelationString(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "same", RelationSame.String())
	assert.Equal(t, "adjacent", RelationAdjacent.String())
	assert.Equal(t, "none", RelationNone.String())
}
