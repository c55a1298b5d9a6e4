package bloom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNewRejectsNonPositiveCapacity(t *testing.T) {
	_, err := New(Params{Capacity: 0, DecayTime: time.Second})
	require.Error(t, err)
	var perr *ParameterError
	require.ErrorAs(t, err, &perr)
}

func TestNewRejectsNonPositiveDecayTime(t *testing.T) {
	_, err := New(Params{Capacity: 10, DecayTime: 0})
	require.Error(t, err)
}

func TestNewRejectsErrorOutOfRange(t *testing.T) {
	_, err := New(Params{Capacity: 10, DecayTime: time.Second, Error: 1.5})
	require.Error(t, err)

	_, err = New(Params{Capacity: 10, DecayTime: time.Second, Error: -0.1})
	require.Error(t, err)
}

func TestNewAppliesDefaultError(t *testing.T) {
	f, err := New(Params{Capacity: 10, DecayTime: time.Second})
	require.NoError(t, err)
	require.Equal(t, DefaultError, f.ErrorRate())
}
