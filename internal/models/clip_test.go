package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClip_PlayDuration(t *testing.T) {
	tests := []struct {
		name     string
		clip     Clip
		expected time.Duration
	}{
		{
			name:     "video uses media duration",
			clip:     Clip{Kind: MediaKindVideo, MediaDuration: Duration(8 * time.Second)},
			expected: 8 * time.Second,
		},
		{
			name:     "video unknown duration reports zero",
			clip:     Clip{Kind: MediaKindVideo},
			expected: 0,
		},
		{
			name: "video trim both edges",
			clip: Clip{
				Kind:          MediaKindVideo,
				MediaDuration: Duration(10 * time.Second),
				TrimStart:     Duration(2 * time.Second),
				TrimEnd:       Duration(7 * time.Second),
			},
			expected: 5 * time.Second,
		},
		{
			name: "trim end beyond media is clamped",
			clip: Clip{
				Kind:          MediaKindVideo,
				MediaDuration: Duration(10 * time.Second),
				TrimEnd:       Duration(30 * time.Second),
			},
			expected: 10 * time.Second,
		},
		{
			name: "inverted trim ignored",
			clip: Clip{
				Kind:          MediaKindVideo,
				MediaDuration: Duration(10 * time.Second),
				TrimStart:     Duration(9 * time.Second),
				TrimEnd:       Duration(3 * time.Second),
			},
			expected: 3 * time.Second,
		},
		{
			name:     "photo uses configured duration",
			clip:     Clip{Kind: MediaKindPhoto, MediaDuration: Duration(6 * time.Second)},
			expected: 6 * time.Second,
		},
		{
			name:     "photo default duration",
			clip:     Clip{Kind: MediaKindPhoto},
			expected: DefaultPhotoDuration,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.clip.PlayDuration())
		})
	}
}

func TestClip_NormalizedRotation(t *testing.T) {
	tests := []struct {
		rotation int
		expected int
	}{
		{0, 0}, {1, 1}, {3, 3}, {4, 0}, {5, 1}, {-1, 3}, {-4, 0},
	}
	for _, tt := range tests {
		clip := Clip{Rotation: tt.rotation}
		assert.Equal(t, tt.expected, clip.NormalizedRotation(), "rotation %d", tt.rotation)
	}
}

func TestClip_MediaRef(t *testing.T) {
	local := Clip{SourcePath: "/media/a.mp4"}
	assert.Equal(t, "/media/a.mp4", local.MediaRef())
	assert.False(t, local.IsRemote())

	remote := Clip{AssetURL: "https://assets.example/a.mp4"}
	assert.Equal(t, "https://assets.example/a.mp4", remote.MediaRef())
	assert.True(t, remote.IsRemote())
}

func TestClip_Validate(t *testing.T) {
	valid := Clip{Kind: MediaKindVideo, SourcePath: "/a.mp4"}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name    string
		clip    Clip
		wantErr error
	}{
		{"bad kind", Clip{Kind: "audio", SourcePath: "/a.mp3"}, ErrInvalidMediaKind},
		{"no source", Clip{Kind: MediaKindVideo}, ErrClipSourceRequired},
		{
			"both sources",
			Clip{Kind: MediaKindVideo, SourcePath: "/a.mp4", AssetURL: "https://x/a.mp4"},
			ErrClipSourceAmbiguous,
		},
		{
			"bad scale override",
			Clip{Kind: MediaKindVideo, SourcePath: "/a.mp4", ScaleOverride: "stretch"},
			ErrInvalidScaleMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.clip.Validate(), tt.wantErr)
		})
	}
}
