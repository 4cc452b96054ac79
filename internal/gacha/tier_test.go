package gacha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTier(t *testing.T) {
	tests := []struct {
		in      string
		want    Tier
		wantErr bool
	}{
		{"uz+", TierUZPlus, false},
		{"UZ+", TierUZPlus, false},
		{" Zzz ", TierZZZ, false},
		{"S", TierS, false},
		{"e", TierE, false},
		{"", "", true},
		{"x", "", true},
		{"uz ++", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTier(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTierPoints(t *testing.T) {
	want := map[Tier]int{
		TierUZPlus: 10, TierUZ: 8, TierZZZ: 6, TierZZ: 4, TierZ: 2,
		TierSSS: 1, TierSS: 1, TierS: 1, TierA: 1, TierB: 1, TierC: 1, TierD: 1, TierE: 1,
	}
	for _, tier := range Tiers() {
		assert.Equal(t, want[tier], tier.Points(), "tier %s", tier)
		assert.True(t, tier.Valid())
	}
	assert.Len(t, Tiers(), len(want))
	assert.Equal(t, 0, Tier("bogus").Points())
	assert.False(t, Tier("").Valid())
}

func TestTierLabel(t *testing.T) {
	assert.Equal(t, "UZ+", TierUZPlus.Label())
	assert.Equal(t, "SSS", TierSSS.Label())
}

func TestPointsFor(t *testing.T) {
	assert.Equal(t, 0, PointsFor(nil))
	assert.Equal(t, 10+8+1+1, PointsFor([]Tier{TierUZPlus, TierUZ, TierS, TierE}))
}
