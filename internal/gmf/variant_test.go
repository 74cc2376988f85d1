package gmf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVariantRoundTrip(t *testing.T) {
	for _, name := range VariantNames() {
		v, err := ParseVariant(name)
		require.NoError(t, err)
		require.Equal(t, name, v.String())
	}
}

func TestParseVariantUnknown(t *testing.T) {
	_, err := ParseVariant("jf12")
	require.True(t, errors.Is(err, ErrUnknownVariant))
}

func TestVariantCount(t *testing.T) {
	require.Len(t, Variants(), 8)
	require.Len(t, VariantNames(), 8)
}

func TestVariantValid(t *testing.T) {
	require.True(t, Base.Valid())
	require.True(t, NebCor.Valid())
	require.False(t, Variant(-1).Valid())
	require.False(t, Variant(8).Valid())
}
