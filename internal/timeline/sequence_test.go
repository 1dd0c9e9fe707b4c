package timeline

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/tapedeck/internal/models"
)

func randomTape(id string, clips int) *models.Tape {
	t := &models.Tape{
		Name:               "random tape",
		Orientation:        models.OrientationPortrait,
		ScaleMode:          models.ScaleModeFill,
		TransitionStyle:    models.TransitionRandom,
		TransitionDuration: models.Duration(400 * time.Millisecond),
	}
	t.ID = models.MustParseULID(id)
	for i := 0; i < clips; i++ {
		c := videoClip(fmt.Sprintf("01JBVZJW8G0000000000000%03d", i), 8*time.Second)
		c.Position = i
		t.Clips = append(t.Clips, c)
	}
	return t
}

func TestSequenceFixedStyles(t *testing.T) {
	for _, style := range []models.TransitionStyle{
		models.TransitionNone,
		models.TransitionCrossfade,
		models.TransitionSlideLeft,
		models.TransitionSlideRight,
	} {
		t.Run(string(style), func(t *testing.T) {
			tape := testTape(style, time.Second,
				videoClip("01JBVZJW8G0000000000000001", 8*time.Second),
				videoClip("01JBVZJW8G0000000000000002", 8*time.Second),
				videoClip("01JBVZJW8G0000000000000003", 8*time.Second),
			)
			styles := Sequence(tape)
			require.Len(t, styles, 2)
			for _, s := range styles {
				assert.Equal(t, style, s)
			}
		})
	}
}

func TestSequenceRandomDeterministic(t *testing.T) {
	tape := randomTape("01JBVZJW8G00000000000TAPE1", 12)

	first := Sequence(tape)
	second := Sequence(tape)
	require.Len(t, first, 11)
	assert.Equal(t, first, second, "same tape id must re-derive the same sequence")
}

func TestSequenceRandomVariesByTape(t *testing.T) {
	a := Sequence(randomTape("01JBVZJW8G00000000000TAPE1", 20))
	b := Sequence(randomTape("01JBVZJW8G00000000000TAPE2", 20))
	assert.NotEqual(t, a, b, "different tape ids should diverge")
}

func TestSequenceRandomDrawsFromAllStyles(t *testing.T) {
	styles := Sequence(randomTape("01JBVZJW8G00000000000TAPE3", 200))
	seen := map[models.TransitionStyle]bool{}
	for _, s := range styles {
		seen[s] = true
	}
	assert.Len(t, seen, 4, "a long sequence should hit every style")
}

func TestSequenceZeroBoundaries(t *testing.T) {
	assert.Nil(t, Sequence(randomTape("01JBVZJW8G00000000000TAPE4", 1)))
	assert.Nil(t, Sequence(randomTape("01JBVZJW8G00000000000TAPE5", 0)))
}

func TestSplitMix64KnownValues(t *testing.T) {
	// Reference values for seed 0 from the published splitmix64 algorithm.
	rng := newSplitMix64(0)
	assert.Equal(t, uint64(0xe220a8397b1dcdaf), rng.next())
	assert.Equal(t, uint64(0x6e789e6aa1b965f4), rng.next())
	assert.Equal(t, uint64(0x06c45d188009454f), rng.next())
}

func TestTimelineStylesMatchSequence(t *testing.T) {
	// Preview and export both read the built timeline, so the attached
	// boundary styles must reproduce the generator's output (hard cuts may
	// appear where the overlap collapsed, but random tapes of long clips
	// never collapse).
	tape := randomTape("01JBVZJW8G00000000000TAPE6", 10)
	tl, err := Build(tape, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, Sequence(tape), tl.Styles())
}
