package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	prev := buildLogger
	buildLogger = func(bool) (*zap.Logger, error) { return zap.NewNop(), nil }
	t.Cleanup(func() { buildLogger = prev })
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCalcCmd_Text(t *testing.T) {
	out, err := run(t, "calc", "--stage", "flowering", "--volume", "500")
	require.NoError(t, err)

	assert.Contains(t, out, "Stage: flowering  Volume: 500 L")
	assert.Contains(t, out, "Tank A:\n  Calcium Nitrate: 450.00 g\n  Potassium Nitrate: 250.00 g\n")
	assert.Contains(t, out, "  Magnesium Sulphate: 225.00 g\n")
}

func TestCalcCmd_JSON(t *testing.T) {
	out, err := run(t, "calc", "--stage", "SEEDLING", "--volume", "1000", "--json")
	require.NoError(t, err)

	var got map[string]map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, map[string]float64{"Calcium Nitrate": 600, "Potassium Nitrate": 250}, got["Tank A"])
	assert.Len(t, got["Tank B"], 3)
}

func TestCalcCmd_Errors(t *testing.T) {
	out, err := run(t, "calc", "--stage", "seedling", "--volume", "abc")
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, "Error: Please enter a valid number for the tank volume.\n", out)

	out, err = run(t, "calc", "--stage", "seedling", "--volume", "-5")
	assert.ErrorIs(t, err, errReported)
	assert.Equal(t, "Error: Tank volume must be a positive number.\n", out)

	out, err = run(t, "calc", "--stage", "bogus", "--volume", "10")
	assert.ErrorIs(t, err, errReported)
	assert.Contains(t, out, "Please use one of: seedling, vegetative, flowering, fruiting.")
}

func TestStagesCmd(t *testing.T) {
	out, err := run(t, "stages")
	require.NoError(t, err)
	assert.Equal(t, "seedling\nvegetative\nflowering\nfruiting\n", out)
}

func TestRootCmd_BuildsLoggerOnEveryRun(t *testing.T) {
	prev := buildLogger
	t.Cleanup(func() { buildLogger = prev })

	var levels []bool
	buildLogger = func(verbose bool) (*zap.Logger, error) {
		levels = append(levels, verbose)
		return zap.NewNop(), nil
	}

	for _, args := range [][]string{{"stages"}, {"--verbose", "stages"}, {"stages"}} {
		var out bytes.Buffer
		cmd := newRootCmd(&out)
		cmd.SetArgs(args)
		require.NoError(t, cmd.Execute())
	}
	assert.Equal(t, []bool{false, true, false}, levels)
}

func TestCalcCmd_HugeVolumeStaysFinite(t *testing.T) {
	out, err := run(t, "calc", "--stage", "flowering", "--volume", "1.7e308", "--json")
	require.NoError(t, err)

	var got map[string]map[string]float64
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.InDelta(t, 1.53e308, got["Tank A"]["Calcium Nitrate"], 1e305)
}
