package chans

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestShareDefault(t *testing.T) {
	s := NewShare("velocity", 0.0)
	require.Equal(t, 0.0, s.Read())
	s.Write(5.5)
	require.Equal(t, 5.5, s.Read())
	require.EqualValues(t, 1, s.Writes())
}

func TestShareLatestWins(t *testing.T) {
	s := NewShare("flag", false)
	for _, v := range []bool{true, false, true} {
		s.Write(v)
		for n := 0; n < 3; n++ {
			require.Equal(t, v, s.Read())
		}
	}
	s.Reset()
	require.False(t, s.Read())
	require.Zero(t, s.Writes())
}

func TestShareString(t *testing.T) {
	s := NewShare[int32]("count", 3)
	require.Contains(t, s.String(), "Share<int32>")
	require.Equal(t, KindShare, s.Stat().Kind)
}
