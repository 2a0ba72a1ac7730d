package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptionsValidate(t *testing.T) {
	valid := Options{Players: 2, Size: 3, Tiles: 2, PlayTime: 5}
	assert.NoError(t, valid.Validate())

	full := Options{Players: 4, Size: 3, Tiles: 5, PlayTime: 1}
	assert.NoError(t, full.Validate(), "tiles and players exactly fill the board")

	for name, opts := range map[string]Options{
		"no players":  {Players: 0, Size: 3, Tiles: 2, PlayTime: 5},
		"no board":    {Players: 2, Size: 0, Tiles: 0, PlayTime: 5},
		"neg tiles":   {Players: 2, Size: 3, Tiles: -1, PlayTime: 5},
		"no time":     {Players: 2, Size: 3, Tiles: 2, PlayTime: 0},
		"overcrowded": {Players: 5, Size: 3, Tiles: 5, PlayTime: 5},
	} {
		assert.ErrorIs(t, opts.Validate(), ErrInvalidOptions, name)
	}
}
