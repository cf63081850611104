package types

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteRunStats(t *testing.T) {
	stats := RunStats{
		ID:              uuid.New().String(),
		Timestamp:       time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		StrategyName:    "sma_cross",
		DataPath:        "data/candles.csv",
		StartingBalance: 10000,
		FinalBalance:    10100,
		RealizedPnL:     100,
		TotalROI:        1,
		NumberOfTrades:  2,
		WinningTrades:   1,
		LosingTrades:    1,
		WinRate:         50,
		Trades: []Trade{
			{Number: 1, CloseOrderID: 2, EntryOrderIDs: []int64{1}, PnL: 200, ROI: 20, Mode: PositionModeSpot},
			{Number: 2, CloseOrderID: 4, EntryOrderIDs: []int64{3}, PnL: -100, ROI: -10, Mode: PositionModeSpot},
		},
	}

	path := filepath.Join(t.TempDir(), "stats.yaml")
	require.NoError(t, WriteRunStats(path, stats))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var decoded RunStats
	require.NoError(t, yaml.Unmarshal(data, &decoded))

	assert.Equal(t, stats.ID, decoded.ID)
	assert.Equal(t, stats.StrategyName, decoded.StrategyName)
	assert.InDelta(t, stats.FinalBalance, decoded.FinalBalance, 1e-9)
	assert.Len(t, decoded.Trades, 2)
	assert.Equal(t, []int64{1}, decoded.Trades[0].EntryOrderIDs)
}

func TestWriteRunStatsBadPath(t *testing.T) {
	err := WriteRunStats(filepath.Join(t.TempDir(), "missing", "stats.yaml"), RunStats{})
	assert.Error(t, err)
}
