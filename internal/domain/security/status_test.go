package security

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParseArmingStatus verifies wire names, relaxed spelling and rejection of unknown values.
func TestParseArmingStatus(t *testing.T) {
	t.Parallel()

	cases := map[string]ArmingStatus{
		"DISARMED":    Disarmed,
		"ARMED_HOME":  ArmedHome,
		"armed-away":  ArmedAway,
		" armed_home": ArmedHome,
	}
	for s, want := range cases {
		got, err := ParseArmingStatus(s)
		require.NoError(t, err)
		require.Equal(t, want, got)
	}

	_, err := ParseArmingStatus("ARMED_GARDEN")
	require.ErrorIs(t, err, ErrInvalidArmingStatus)
}

// TestParseAlarmStatus verifies wire names and rejection of unknown values.
func TestParseAlarmStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []AlarmStatus{NoAlarm, PendingAlarm, Alarm} {
		got, err := ParseAlarmStatus(status.String())
		require.NoError(t, err)
		require.Equal(t, status, got)
	}

	_, err := ParseAlarmStatus("")
	require.ErrorIs(t, err, ErrInvalidAlarmStatus)
}

// TestStatusValidity checks Valid and String for out-of-range values.
func TestStatusValidity(t *testing.T) {
	t.Parallel()

	require.True(t, ArmedAway.Valid())
	require.False(t, ArmingStatus(3).Valid())
	require.Equal(t, "ArmingStatus(3)", ArmingStatus(3).String())

	require.True(t, Alarm.Valid())
	require.False(t, AlarmStatus(9).Valid())
	require.Equal(t, "AlarmStatus(9)", AlarmStatus(9).String())

	require.False(t, Disarmed.IsArmed())
	require.True(t, ArmedHome.IsArmed())
	require.True(t, ArmedAway.IsArmed())
}
