package course

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entrhq/coursepilot/pkg/dom/snapshot"
)

func TestParseProgress(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"93", 93, true},
		{"93%", 93, true},
		{"  42 % complete", 42, true},
		{"\n\t7", 7, true},
		{"-5", -5, true},
		{"+12", 12, true},
		{"0", 0, true},
		{"3.9", 3, true},
		{"%93", 0, false},
		{"", 0, false},
		{"-", 0, false},
		{"abc", 0, false},
		{"99999999999999999999999%", math.MaxInt, true},
		{"-99999999999999999999999", math.MinInt, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseProgress(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadProgress(t *testing.T) {
	tests := []struct {
		name  string
		spec  snapshot.FrameSpec
		want  int
		found bool
	}{
		{
			name: "directly in origin",
			spec: snapshot.FrameSpec{
				Source: `<span id="lp">12%</span>`,
				Frames: []snapshot.FrameSpec{{Name: FrameHeader, Source: `<span id="lp">80</span>`}},
			},
			want: 12, found: true,
		},
		{
			name: "header frame",
			spec: snapshot.FrameSpec{
				Source: `<p></p>`,
				Frames: []snapshot.FrameSpec{
					{Name: FrameText, Source: `<span id="lp">5</span>`},
					{Name: FrameHeader, Source: `<span id="lp">64</span>`},
				},
			},
			want: 64, found: true,
		},
		{
			name: "unparseable origin falls through to frames",
			spec: snapshot.FrameSpec{
				Source: `<span id="lp">--</span>`,
				Frames: []snapshot.FrameSpec{{Name: FrameLessons, Source: `<span id="lp">33</span>`}},
			},
			want: 33, found: true,
		},
		{
			name: "every frame with the name is tried",
			spec: snapshot.FrameSpec{
				Source: `<p></p>`,
				Frames: []snapshot.FrameSpec{
					{Name: FrameText, Source: `<p>nothing</p>`},
					{Name: FrameText, Source: `<span id="lp">71</span>`},
				},
			},
			want: 71, found: true,
		},
		{
			name: "blocked frame is skipped",
			spec: snapshot.FrameSpec{
				Source: `<p></p>`,
				Frames: []snapshot.FrameSpec{
					{Name: FrameHeader, Blocked: true, Source: `<span id="lp">10</span>`},
					{Name: FrameText, Source: `<span id="lp">20</span>`},
				},
			},
			want: 20, found: true,
		},
		{
			name: "zero is a reading",
			spec: snapshot.FrameSpec{Source: `<span id="lp">0%</span>`},
			want: 0, found: true,
		},
		{
			name:  "nothing to read",
			spec:  snapshot.FrameSpec{Source: `<p></p>`, Frames: []snapshot.FrameSpec{{Name: FrameHeader, Source: `<p></p>`}}},
			found: false,
		},
		{
			name:  "blocked origin",
			spec:  snapshot.FrameSpec{Source: `<span id="lp">50</span>`, Blocked: true},
			found: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := snapshot.New(tt.spec)
			require.NoError(t, err)

			got, ok := ReadProgress(page.Main())
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReadProgressSearchesAncestors(t *testing.T) {
	page, err := snapshot.New(snapshot.FrameSpec{
		Source: `<p></p>`,
		Frames: []snapshot.FrameSpec{
			{Name: FrameHeader, Source: `<span id="lp">88%</span>`},
			{Name: "player", Source: `<p></p>`, Frames: []snapshot.FrameSpec{
				{Name: "content", Source: `<p>lesson</p>`},
			}},
		},
	})
	require.NoError(t, err)

	got, ok := ReadProgress(page.Frame("content"))
	assert.True(t, ok)
	assert.Equal(t, 88, got)
}
