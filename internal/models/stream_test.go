package models

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameSerializaNaNComoNull(t *testing.T) {
	frame := Frame{
		SourceID:   "sim",
		Data:       [][]float64{{1.5, math.NaN(), 3.0}},
		Timestamps: []float64{0.1, 0.2, 0.3},
	}

	raw, err := json.Marshal(frame)
	require.NoError(t, err)

	var decoded struct {
		SourceID   string       `json:"sourceId"`
		Data       [][]*float64 `json:"data"`
		Timestamps []float64    `json:"timestamps"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "sim", decoded.SourceID)
	require.Len(t, decoded.Data, 1)
	require.Len(t, decoded.Data[0], 3)
	require.NotNil(t, decoded.Data[0][0])
	assert.Equal(t, 1.5, *decoded.Data[0][0])
	assert.Nil(t, decoded.Data[0][1])
	require.NotNil(t, decoded.Data[0][2])
	assert.Equal(t, 3.0, *decoded.Data[0][2])
}

func TestFrameSerializaMarcadores(t *testing.T) {
	frame := Frame{
		SourceID:         "plc",
		Data:             [][]float64{{1.0}},
		Timestamps:       []float64{2.0},
		Markers:          []string{"inicio"},
		MarkerTimestamps: []float64{1.9},
	}

	raw, err := json.Marshal(frame)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"markers":["inicio"]`)
	assert.Contains(t, string(raw), `"markerTimestamps":[1.9]`)
}

func TestSnapshotSerializaNaNComoNull(t *testing.T) {
	snap := Snapshot{
		Values:    []float64{math.NaN(), 42.5},
		Timestamp: 1.25,
	}

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded struct {
		Values    []*float64 `json:"values"`
		Timestamp float64    `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	require.Len(t, decoded.Values, 2)
	assert.Nil(t, decoded.Values[0])
	require.NotNil(t, decoded.Values[1])
	assert.Equal(t, 42.5, *decoded.Values[1])
	assert.Equal(t, 1.25, decoded.Timestamp)
}
