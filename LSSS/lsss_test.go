package LSSS

import (
	"math/big"
	"testing"

	"github.com/fentec-project/bn256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Σ wi·λi over the selected rows must give back s
func reconstruct(t *testing.T, policy *MSPPolicy, attrs []string) (map[int]*big.Int, bool) {
	t.Helper()
	p := bn256.Order
	secret := big.NewInt(424242)

	v, err := policy.RandVector()
	require.NoError(t, err, "share vector")
	v[0] = new(big.Int).Set(secret)
	lambda := make(map[int]*big.Int, policy.Rows())
	for i := 0; i < policy.Rows(); i++ {
		lambda[i], err = policy.Share(i, v)
		require.NoError(t, err, "share row %d", i)
	}

	w, err := policy.Coefficients(attrs)
	if err != nil {
		require.ErrorIs(t, err, ErrUnsatisfied)
		return nil, false
	}
	sum := big.NewInt(0)
	for i, wi := range w {
		sum.Add(sum, new(big.Int).Mul(wi, lambda[i]))
	}
	sum.Mod(sum, p)
	assert.Equal(t, 0, sum.Cmp(secret), "reconstructed secret mismatch")
	return w, true
}

func TestLSSSCompleteFlow(t *testing.T) {
	// 1. compile a policy mixing AND and OR
	policy, err := NewPolicy("(eng AND mgr) OR admin", bn256.Order)
	require.NoError(t, err)
	require.Equal(t, 3, policy.Rows())

	// 2. every satisfying set reconstructs
	_, ok := reconstruct(t, policy, []string{"eng", "mgr"})
	require.True(t, ok)
	_, ok = reconstruct(t, policy, []string{"admin"})
	require.True(t, ok)

	// 3. non satisfying sets are rejected
	_, ok = reconstruct(t, policy, []string{"eng"})
	assert.False(t, ok)
	_, ok = reconstruct(t, policy, []string{"intern", ""})
	assert.False(t, ok)
}

func TestCoefficientsMinimalSet(t *testing.T) {
	policy, err := NewPolicy("(eng AND mgr) OR admin", bn256.Order)
	require.NoError(t, err)

	w, ok := reconstruct(t, policy, []string{"eng", "mgr", "admin"})
	require.True(t, ok)
	require.Len(t, w, 1, "admin alone is authorized, the AND branch must be dropped")
	for i, wi := range w {
		assert.Equal(t, "admin", policy.Attribute(i))
		assert.NotZero(t, wi.Sign())
	}

	or, err := NewPolicy("eng OR mgr", bn256.Order)
	require.NoError(t, err)
	w, ok = reconstruct(t, or, []string{"mgr", "eng"})
	require.True(t, ok)
	require.Len(t, w, 1)

	// same input, same rows
	again, err := or.Coefficients([]string{"mgr", "eng"})
	require.NoError(t, err)
	assert.Equal(t, w, again)
}

func TestShareRange(t *testing.T) {
	policy, err := NewPolicy("eng AND mgr", bn256.Order)
	require.NoError(t, err)

	v, err := policy.RandVector()
	require.NoError(t, err)
	for i := 0; i < policy.Rows(); i++ {
		li, err := policy.Share(i, v)
		require.NoError(t, err)
		assert.True(t, li.Sign() >= 0 && li.Cmp(bn256.Order) < 0)
	}
	_, err = policy.Share(policy.Rows(), v)
	assert.Error(t, err)

	_, err = NewPolicy("  ", bn256.Order)
	assert.Error(t, err)
}
