package LSSS

import (
	"math/big"

	"github.com/fentec-project/gofe/data"
	"github.com/fentec-project/gofe/sample"
	"github.com/pkg/errors"
)

// RandVector samples v ∈ Zp^ℓ, v[0] is the shared secret s
func (m *MSPPolicy) RandVector() (data.Vector, error) {
	return data.NewRandomVector(m.msp.Mat.Cols(), sample.NewUniform(m.P))
}

// Share λi = Ai·v mod p
func (m *MSPPolicy) Share(row int, v data.Vector) (*big.Int, error) {
	if row < 0 || row >= len(m.msp.Mat) {
		return nil, errors.Errorf("row %d out of range [0,%d)", row, len(m.msp.Mat))
	}
	lambda, err := m.msp.Mat[row].Dot(v)
	if err != nil {
		return nil, errors.Wrapf(err, "share row %d", row)
	}
	return lambda.Mod(lambda, m.P), nil
}
