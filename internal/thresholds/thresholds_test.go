package thresholds

import (
	"math"
	"net/url"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	s := NewStore(Defaults).Current()
	assert.Equal(t, Set{20, 25, 20, 40, 950, 1050}, s)
	assert.Empty(t, s.Inverted())
}

func TestApplyUpdatePartialIsolation(t *testing.T) {
	store := NewStore(Defaults)
	before := store.Current()

	applied := store.ApplyUpdate(Partial{FieldTempLow: "18.5"})
	after := store.Current()

	assert.Equal(t, []Field{FieldTempLow}, applied)
	assert.Equal(t, 18.5, after.TempLow)

	// the other five bounds are bit-identical
	assert.Equal(t, math.Float64bits(before.TempHigh), math.Float64bits(after.TempHigh))
	assert.Equal(t, math.Float64bits(before.HumidLow), math.Float64bits(after.HumidLow))
	assert.Equal(t, math.Float64bits(before.HumidHigh), math.Float64bits(after.HumidHigh))
	assert.Equal(t, math.Float64bits(before.PressLow), math.Float64bits(after.PressLow))
	assert.Equal(t, math.Float64bits(before.PressHigh), math.Float64bits(after.PressHigh))
}

func TestApplyUpdateAllFields(t *testing.T) {
	store := NewStore(Defaults)
	applied := store.ApplyUpdate(Partial{
		FieldTempLow:   "1",
		FieldTempHigh:  "2",
		FieldHumidLow:  "3",
		FieldHumidHigh: "4",
		FieldPressLow:  "5",
		FieldPressHigh: "6",
	})

	assert.Equal(t, Fields, applied)
	assert.Equal(t, Set{1, 2, 3, 4, 5, 6}, store.Current())
}

func TestApplyUpdateMalformedLeavesFieldUnchanged(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"letters", "abc"},
		{"empty", ""},
		{"trailing junk", "21x"},
		{"nan", "NaN"},
		{"infinity", "+Inf"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := NewStore(Defaults)
			applied := store.ApplyUpdate(Partial{FieldTempLow: tc.raw})

			assert.Empty(t, applied)
			assert.Equal(t, Defaults, store.Current())
		})
	}
}

func TestApplyUpdateMixedValidAndInvalid(t *testing.T) {
	store := NewStore(Defaults)
	applied := store.ApplyUpdate(Partial{FieldTempLow: "abc", FieldPressHigh: " 1100 "})

	assert.Equal(t, []Field{FieldPressHigh}, applied)
	cur := store.Current()
	assert.Equal(t, 20.0, cur.TempLow)
	assert.Equal(t, 1100.0, cur.PressHigh)
}

func TestApplyUpdateIgnoresUnknownFields(t *testing.T) {
	store := NewStore(Defaults)
	assert.Empty(t, store.ApplyUpdate(Partial{"tMid": "22"}))
	assert.Equal(t, Defaults, store.Current())
}

func TestInvertedBandIsAcceptedAndReported(t *testing.T) {
	store := NewStore(Defaults)
	store.ApplyUpdate(Partial{FieldTempLow: "30"})

	cur := store.Current()
	assert.Equal(t, 30.0, cur.TempLow)
	assert.Equal(t, []Metric{Temperature}, cur.Inverted())
}

func TestBand(t *testing.T) {
	low, high := Defaults.Band(Humidity)
	assert.Equal(t, 20.0, low)
	assert.Equal(t, 40.0, high)

	low, high = Defaults.Band("altitude")
	assert.True(t, math.IsNaN(low))
	assert.True(t, math.IsNaN(high))
}

func TestFromValues(t *testing.T) {
	q, err := url.ParseQuery("tLow=19&hHigh=&other=1&pLow=900&pLow=901")
	require.NoError(t, err)

	p := FromValues(q)
	assert.Equal(t, Partial{FieldTempLow: "19", FieldHumidHigh: "", FieldPressLow: "900"}, p)
}

func TestFromJSON(t *testing.T) {
	p, err := FromJSON([]byte(`{"tLow": 21.5, "tHigh": "26", "hLow": true, "pHigh": "abc", "x": 1}`))
	require.NoError(t, err)
	assert.Equal(t, Partial{FieldTempLow: "21.5", FieldTempHigh: "26", FieldPressHigh: "abc"}, p)

	_, err = FromJSON([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestValuesRoundTrip(t *testing.T) {
	store := NewStore(Set{})
	store.ApplyUpdate(FromValues(Defaults.Values()))
	assert.Equal(t, Defaults, store.Current())
}

func TestConcurrentUpdateAndRead(t *testing.T) {
	store := NewStore(Set{TempLow: 20, TempHigh: 21})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 500; i++ {
			if i%2 == 0 {
				store.ApplyUpdate(Partial{FieldTempLow: "10", FieldTempHigh: "11"})
			} else {
				store.ApplyUpdate(Partial{FieldTempLow: "20", FieldTempHigh: "21"})
			}
		}
	}()

	for i := 0; i < 500; i++ {
		cur := store.Current()
		// a whole update is applied under one lock
		assert.Equal(t, cur.TempLow+1, cur.TempHigh)
	}
	wg.Wait()
}
