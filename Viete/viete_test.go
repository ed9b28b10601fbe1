package Viete

import (
	"math/big"
	"testing"

	"github.com/fentec-project/bn256"
	"github.com/fentec-project/gofe/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRootsEvaluateToOne(t *testing.T) {
	p := bn256.Order
	sampler := sample.NewUniform(p)
	for k := 1; k <= 10; k++ {
		roots := make([]*big.Int, k)
		for j := range roots {
			r, err := sampler.Sample()
			require.NoError(t, err)
			roots[j] = r
		}
		eta := Build(roots, p)
		require.Len(t, eta, k+1)
		assert.Equal(t, 0, eta[k].Cmp(big.NewInt(1)), "polynomial must be monic")
		for j, r := range roots {
			assert.Equal(t, 0, Eval(eta, r, p).Cmp(big.NewInt(1)), "P(root_%d) != 1 for k=%d", j, k)
		}
	}
}

func TestBuildSmallRoots(t *testing.T) {
	p := big.NewInt(101)
	// (x-2)(x-3) + 1 = x^2 - 5x + 7
	eta := Build([]*big.Int{big.NewInt(2), big.NewInt(3)}, p)
	require.Len(t, eta, 3)
	assert.Equal(t, int64(7), eta[0].Int64())
	assert.Equal(t, int64(96), eta[1].Int64())
	assert.Equal(t, int64(1), eta[2].Int64())
	assert.Equal(t, int64(7), Eval(eta, big.NewInt(5), p).Int64())
}

func TestPad(t *testing.T) {
	eta := []*big.Int{big.NewInt(4), big.NewInt(1)}
	padded := Pad(eta, 4)
	require.Len(t, padded, 4)
	assert.Equal(t, int64(4), padded[0].Int64())
	assert.Equal(t, int64(0), padded[3].Int64())
	assert.Equal(t, 0, Eval(padded, big.NewInt(9), bn256.Order).Cmp(Eval(eta, big.NewInt(9), bn256.Order)))
}
