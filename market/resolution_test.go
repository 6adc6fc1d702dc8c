package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeResolution(t *testing.T) {
	t.Parallel()

	tests := []struct {
		token string
		want  Resolution
	}{
		{"1", Min1}, {"1m", Min1},
		{"5", Min5}, {"5m", Min5},
		{"15", Min15}, {"15m", Min15},
		{"30", Min30}, {"30m", Min30},
		{"60", Min60}, {"1h", Min60}, {"60m", Min60},
		{"120", Min120}, {"2h", Min120}, {"120m", Min120},
		{"240", Min240}, {"4h", Min240}, {"240m", Min240},
		{"D", Day}, {"d", Day}, {"1d", Day},
		{"W", Week}, {"w", Week}, {"1w", Week},
		{"M", Month}, {"m", Month}, {"1M", Month},
	}

	for _, tt := range tests {
		t.Run(tt.token, func(t *testing.T) {
			got, err := NormalizeResolution(tt.token)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeResolutionRejectsUnknown(t *testing.T) {
	t.Parallel()

	for _, token := range []string{"", "2", "7m", "1H", "daily", "1mo", "MM"} {
		t.Run(token, func(t *testing.T) {
			_, err := NormalizeResolution(token)
			assert.ErrorIs(t, err, ErrInvalidResolution)
		})
	}
}

// "m" is month and "1m" is one minute; the lookup must not fold case.
func TestNormalizeResolutionCaseSensitivity(t *testing.T) {
	t.Parallel()

	month, err := NormalizeResolution("m")
	require.NoError(t, err)
	assert.Equal(t, Month, month)

	minute, err := NormalizeResolution("1m")
	require.NoError(t, err)
	assert.Equal(t, Min1, minute)
}
