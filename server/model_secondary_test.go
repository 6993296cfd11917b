package server

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleLevel = `
W1 W1 W1 W1 W1
p1    I2    DO
TR FR    I9 W1
`

func TestParseLevel(t *testing.T) {
	lv := ParseLevel(sampleLevel)

	assert.Equal(t, 5, lv.Width)
	assert.Equal(t, 3, lv.Height)
	assert.Equal(t, Cell{Col: 0, Row: 1}, lv.Spawn)
	require.NotNil(t, lv.Door)
	assert.Equal(t, Cell{Col: 4, Row: 1}, *lv.Door)

	require.Len(t, lv.Collectibles, 3)
	assert.Equal(t, "40,40", lv.Collectibles[0].Id)
	assert.Equal(t, "I2", lv.Collectibles[0].Type)
	assert.Equal(t, 150, lv.Collectibles[0].Points)
	assert.Equal(t, 40.0, lv.Collectibles[0].X)

	assert.Equal(t, "8,56", lv.Collectibles[1].Id)
	assert.Equal(t, 1000, lv.Collectibles[1].Points)

	// unknown item kinds fall back to the flat delta
	assert.Equal(t, "I9", lv.Collectibles[2].Type)
	assert.Equal(t, COLLECTIBLE_DELTA, lv.Collectibles[2].Points)

	require.Len(t, lv.Traps, 1)
	assert.Equal(t, "24,56", lv.Traps[0].Id)
	assert.Empty(t, lv.PowerUps)
}

func TestParseLevelEmpty(t *testing.T) {
	lv := ParseLevel("")
	assert.Zero(t, lv.Height)
	assert.Empty(t, lv.Collectibles)
	assert.Nil(t, lv.Door)
}

func TestDirLevels(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "1.txt"), []byte(sampleLevel), 0o644))
	levels := DirLevels{Dir: dir}

	b, err := levels.Level(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, sampleLevel, string(b))

	_, err = levels.Level(context.Background(), 2)
	assert.ErrorIs(t, err, ErrAssetUnavailable)

	_, err = levels.Level(context.Background(), 0)
	assert.ErrorIs(t, err, ErrAssetUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = levels.Level(ctx, 1)
	assert.ErrorIs(t, err, ErrAssetUnavailable)
}
