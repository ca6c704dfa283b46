package window

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ms(n int64) time.Time { return time.UnixMilli(n).UTC() }

func bounds(ws []Window) [][2]int64 {
	out := make([][2]int64, len(ws))
	for i, w := range ws {
		out[i] = [2]int64{w.FromMillis(), w.ToMillis()}
	}
	return out
}

func TestPlan(t *testing.T) {
	tests := []struct {
		name  string
		start int64
		end   int64
		size  time.Duration
		want  [][2]int64
	}{
		{
			name:  "exact multiple",
			start: 0, end: 2000, size: time.Second,
			want: [][2]int64{{0, 1000}, {1000, 2000}},
		},
		{
			name:  "short last window",
			start: 0, end: 1500, size: time.Second,
			want: [][2]int64{{0, 1000}, {1000, 1500}},
		},
		{
			name:  "start equals end",
			start: 5000, end: 5000, size: time.Second,
			want: [][2]int64{{5000, 5000}},
		},
		{
			name:  "window larger than range",
			start: 0, end: 300, size: time.Second,
			want: [][2]int64{{0, 300}},
		},
		{
			name:  "one millisecond windows",
			start: 10, end: 13, size: time.Millisecond,
			want: [][2]int64{{10, 11}, {11, 12}, {12, 13}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Plan(ms(tt.start), ms(tt.end), tt.size)
			require.Equal(t, tt.want, bounds(got))
		})
	}
}

func TestPlan_MatchesCount(t *testing.T) {
	start := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	sizes := []time.Duration{7 * time.Minute, time.Minute, time.Hour, 5 * time.Hour, 24 * time.Hour, 72 * time.Hour}
	spans := []time.Duration{0, time.Millisecond, 59 * time.Minute, 24 * time.Hour, 7*24*time.Hour + 3*time.Second}

	for _, size := range sizes {
		for _, span := range spans {
			end := start.Add(span)
			ws := Plan(start, end, size)

			require.Len(t, ws, Count(start, end, size), "size=%v span=%v", size, span)
			require.True(t, ws[0].From.Equal(start))
			require.True(t, ws[len(ws)-1].To.Equal(end), "last window must be clamped to end")
			for i, w := range ws {
				require.False(t, w.To.After(end))
				require.True(t, w.To.Sub(w.From) <= size)
				if i > 0 {
					require.True(t, w.From.Equal(ws[i-1].To), "windows must be contiguous")
				}
			}
		}
	}
}

func TestCount(t *testing.T) {
	require.Equal(t, 1, Count(ms(0), ms(0), time.Second))
	require.Equal(t, 1, Count(ms(0), ms(1000), time.Second))
	require.Equal(t, 2, Count(ms(0), ms(1001), time.Second))
	require.Equal(t, 2, Count(ms(0), ms(2000), time.Second))
	require.Equal(t, 3, Count(ms(0), ms(2500), time.Second))
}

func TestWindow_FileName(t *testing.T) {
	w := Window{From: ms(0), To: ms(1000)}
	require.Equal(t, "0_to_1000.jsonl", w.FileName())
	require.Equal(t, "[0, 1000]", w.String())

	w = Window{From: ms(1763553600000), To: ms(1763640000000)}
	require.Equal(t, "1763553600000_to_1763640000000.jsonl", w.FileName())
}

func TestCursor_NextAfterExhaustion(t *testing.T) {
	c := NewCursor(ms(0), ms(1000), time.Second)
	require.True(t, c.Next())
	require.Equal(t, ms(1000), c.Window().To)
	require.False(t, c.Next())
	require.False(t, c.Next())
}
