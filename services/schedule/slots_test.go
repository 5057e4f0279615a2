package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBlocks(t *testing.T) {
	blocks, err := ParseBlocks("08:00-12:00,14:00-18:00")
	require.NoError(t, err)
	require.Len(t, blocks, 2)
	assert.Equal(t, Block{Start: "08:00", End: "12:00"}, blocks[0])
	assert.Equal(t, Block{Start: "14:00", End: "18:00"}, blocks[1])

	_, err = ParseBlocks("")
	assert.Error(t, err)

	_, err = ParseBlocks("08:00")
	assert.Error(t, err)

	_, err = ParseBlocks("12:00-08:00")
	assert.Error(t, err)
}

func TestBuildGrid(t *testing.T) {
	blocks, err := ParseBlocks("08:00-12:00,14:00-18:00")
	require.NoError(t, err)

	grid := BuildGrid(blocks)
	assert.Equal(t,
		[]string{"08:00", "09:00", "10:00", "11:00", "14:00", "15:00", "16:00", "17:00"},
		grid,
	)
}

func TestBuildGridUpperBoundExclusive(t *testing.T) {
	blocks, err := ParseBlocks("09:00-10:00")
	require.NoError(t, err)
	assert.Equal(t, []string{"09:00"}, BuildGrid(blocks))
}
