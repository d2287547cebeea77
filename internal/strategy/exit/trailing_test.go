package exit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type step struct {
	close     float64
	wantStop  float64
	wantMoved bool
	wantClose bool
}

func runSteps(t *testing.T, pos Position, steps []step) {
	t.Helper()
	tr := NewTrailer(3)
	for i, s := range steps {
		d, err := tr.Evaluate(pos, s.close, 0.0001)
		require.NoError(t, err)
		assert.Equal(t, s.wantMoved, d.Moved, "step %d moved", i)
		assert.InDelta(t, s.wantStop, d.NewStop, 1e-9, "step %d stop", i)
		assert.Equal(t, s.wantClose, d.Close, "step %d close", i)
		pos.Stop = d.NewStop
		if d.Close {
			return
		}
	}
}

func TestTrailingBuySequence(t *testing.T) {
	runSteps(t, Position{IsBuy: true, Entry: 1.6515, Stop: 1.6510, HalfSpreadCost: 0.0001}, []step{
		{close: 1.6520, wantStop: 1.6516, wantMoved: true},
		{close: 1.6518, wantStop: 1.6516},
		{close: 1.6525, wantStop: 1.6521, wantMoved: true},
		{close: 1.6517, wantStop: 1.6521},
	})
}

func TestTrailingSellSequence(t *testing.T) {
	runSteps(t, Position{IsBuy: false, Entry: 1.6519, Stop: 1.6529, HalfSpreadCost: 0.0001}, []step{
		{close: 1.6516, wantStop: 1.6520, wantMoved: true},
		{close: 1.6518, wantStop: 1.6520},
		{close: 1.6510, wantStop: 1.6514, wantMoved: true},
		{close: 1.6520, wantStop: 1.6514},
	})
}

func TestTrailingCrossedStopClosesOnlyBelowEntry(t *testing.T) {
	tests := []struct {
		name      string
		pos       Position
		close     float64
		wantClose bool
	}{
		{"buy stop under entry", Position{IsBuy: true, Entry: 1.6515, Stop: 1.6510}, 1.6505, true},
		{"buy stop past entry", Position{IsBuy: true, Entry: 1.6515, Stop: 1.6530}, 1.6525, false},
		{"buy stop at entry", Position{IsBuy: true, Entry: 1.6515, Stop: 1.6515}, 1.6512, false},
		{"sell stop over entry", Position{IsBuy: false, Entry: 1.6519, Stop: 1.6529}, 1.6531, true},
		{"sell stop past entry", Position{IsBuy: false, Entry: 1.6519, Stop: 1.6505}, 1.6510, false},
		{"sell not crossed", Position{IsBuy: false, Entry: 1.6519, Stop: 1.6529}, 1.6527, false},
	}
	tr := NewTrailer(3)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := tr.Evaluate(tt.pos, tt.close, 0.0001)
			require.NoError(t, err)
			assert.False(t, d.Moved)
			assert.Equal(t, tt.pos.Stop, d.NewStop)
			assert.Equal(t, tt.wantClose, d.Close)
		})
	}
}

func TestTrailingIdempotent(t *testing.T) {
	tr := NewTrailer(3)
	pos := Position{IsBuy: true, Entry: 1.6515, Stop: 1.6510, HalfSpreadCost: 0.0001}
	first, err := tr.Evaluate(pos, 1.6520, 0.0001)
	require.NoError(t, err)
	require.True(t, first.Moved)

	pos.Stop = first.NewStop
	second, err := tr.Evaluate(pos, 1.6520, 0.0001)
	require.NoError(t, err)
	assert.False(t, second.Moved)
	assert.Equal(t, first.NewStop, second.NewStop)
	assert.False(t, second.Close)
}

func TestTrailingNeverLoosens(t *testing.T) {
	tr := NewTrailer(3)
	d, err := tr.Evaluate(Position{IsBuy: true, Entry: 1.2010, Stop: 1.2000}, 1.1990, 0.0010)
	require.NoError(t, err)
	assert.False(t, d.Moved)
	assert.Equal(t, 1.2000, d.NewStop)
	assert.True(t, d.Close)

	d, err = tr.Evaluate(Position{IsBuy: false, Entry: 1.0980, Stop: 1.1000}, 1.0990, 0.0010)
	require.NoError(t, err)
	assert.False(t, d.Moved)
	assert.False(t, d.Close)
}

func TestTrailingRejectsBadInput(t *testing.T) {
	_, err := NewTrailer(0).Evaluate(Position{IsBuy: true, Entry: 1.1, Stop: 1}, 0, 0.1)
	assert.Error(t, err)
	_, err = NewTrailer(0).Evaluate(Position{IsBuy: true, Entry: 1.1, Stop: 1}, 1.2, -0.1)
	assert.Error(t, err)
	_, err = NewTrailer(0).Evaluate(Position{IsBuy: true, Stop: 1}, 1.2, 0.1)
	assert.Error(t, err)
}
