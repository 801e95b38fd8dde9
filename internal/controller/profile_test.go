package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildProfile(t *testing.T) {
	p, err := BuildProfile(ProfileSpec{
		Head:     30 * time.Second,
		Step:     10 * time.Second,
		SavePath: "/tmp/lm/bench.X",
		Samples:  []int{50, 40, 30},
	})
	require.NoError(t, err)

	want := "sleep 30\n" +
		"save /tmp/lm/bench.X\n" +
		"percentage 50\n" +
		"sleep 10\n" +
		"percentage 40\n" +
		"sleep 10\n" +
		"percentage 30\n" +
		"sleep 10\n" +
		"exit\n"
	assert.Equal(t, want, p.Render())
	assert.Equal(t, 60*time.Second, p.Duration())
}

func TestBuildProfile_Cases(t *testing.T) {
	tests := []struct {
		name     string
		spec     ProfileSpec
		wantErr  bool
		duration time.Duration
		lines    int
	}{
		{
			name:     "default sweep",
			spec:     ProfileSpec{Head: 30 * time.Second, Step: 24 * time.Second, Samples: []int{0, 40, 80}},
			duration: 102 * time.Second,
			lines:    9,
		},
		{
			name:     "tail delay",
			spec:     ProfileSpec{Head: 5 * time.Second, Step: time.Second, Tail: 3 * time.Second, Samples: []int{100}},
			duration: 9 * time.Second,
			lines:    6,
		},
		{
			name:     "no samples",
			spec:     ProfileSpec{Head: 30 * time.Second, Step: time.Second},
			duration: 30 * time.Second,
			lines:    3,
		},
		{
			name:     "fractional step rounds up",
			spec:     ProfileSpec{Step: 1500 * time.Millisecond, Samples: []int{10}},
			duration: 2 * time.Second,
			lines:    5,
		},
		{name: "percentage above range", spec: ProfileSpec{Step: time.Second, Samples: []int{101}}, wantErr: true},
		{name: "negative percentage", spec: ProfileSpec{Step: time.Second, Samples: []int{-1}}, wantErr: true},
		{name: "zero step", spec: ProfileSpec{Samples: []int{10}}, wantErr: true},
		{name: "negative head", spec: ProfileSpec{Head: -time.Second, Step: time.Second}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := BuildProfile(tt.spec)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.duration, p.Duration())
			assert.Len(t, p.Directives(), tt.lines)

			var slept time.Duration
			for _, d := range p.Directives() {
				if d.Verb == DirectiveSleep {
					s, err := time.ParseDuration(d.Arg + "s")
					require.NoError(t, err)
					slept += s
				}
			}
			assert.Equal(t, p.Duration(), slept)
		})
	}
}
