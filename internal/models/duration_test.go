package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDuration_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name     string
		json     string
		expected time.Duration
		wantErr  bool
	}{
		{"duration string", `"1.5s"`, 1500 * time.Millisecond, false},
		{"milliseconds", `"750ms"`, 750 * time.Millisecond, false},
		{"number as seconds", `4`, 4 * time.Second, false},
		{"fractional seconds", `0.5`, 500 * time.Millisecond, false},
		{"numeric string as seconds", `"2"`, 2 * time.Second, false},
		{"empty string is zero", `""`, 0, false},
		{"garbage", `"soon"`, 0, true},
		{"wrong type", `true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.json), &d)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d.Duration())
		})
	}
}

func TestDuration_UnmarshalYAML(t *testing.T) {
	var doc struct {
		Transition Duration `yaml:"transition"`
		Photo      Duration `yaml:"photo"`
	}
	err := yaml.Unmarshal([]byte("transition: 750ms\nphoto: 4\n"), &doc)
	require.NoError(t, err)
	assert.Equal(t, 750*time.Millisecond, doc.Transition.Duration())
	assert.Equal(t, 4*time.Second, doc.Photo.Duration())
}

func TestDuration_RoundTripJSON(t *testing.T) {
	d := Seconds(1.25)
	data, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Equal(t, `"1.25s"`, string(data))

	var back Duration
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, d, back)
}

func TestDuration_Scan(t *testing.T) {
	var d Duration
	require.NoError(t, d.Scan(int64(time.Second)))
	assert.Equal(t, time.Second, d.Duration())

	require.NoError(t, d.Scan(nil))
	assert.Equal(t, time.Duration(0), d.Duration())

	assert.Error(t, d.Scan("not-a-number-type"))
}
