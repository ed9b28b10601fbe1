package LSSS

import (
	"math/big"
	"strings"

	"github.com/fentec-project/gofe/abe"
	"github.com/fentec-project/gofe/data"
	"github.com/pkg/errors"
)

// ErrUnsatisfied is returned when the held attributes cannot reconstruct the secret.
var ErrUnsatisfied = errors.New("attributes do not satisfy the access policy")

// AccessStructure is a compiled access policy (A, ρ).
// Row index i is the key shared by ciphertext rows, trapdoor entries and
// transformation-key entries.
type AccessStructure interface {
	// Rows returns n, the number of rows of A.
	Rows() int
	// Attribute returns ρ(i).
	Attribute(row int) string
	// RandVector samples v with v[0] = s.
	RandVector() (data.Vector, error)
	// Share returns λ_i = A_i·v.
	Share(row int, v data.Vector) (*big.Int, error)
	// Coefficients selects a minimal authorized row subset for attrs and
	// returns w(i) for each selected row.
	Coefficients(attrs []string) (map[int]*big.Int, error)
	// Policy returns the source of the structure.
	Policy() string
}

// MSPPolicy is an AccessStructure compiled from a boolean formula
// such as "(eng AND mgr) OR admin".
type MSPPolicy struct {
	policy string
	msp    *abe.MSP
	P      *big.Int
}

// NewPolicy compiles a boolean policy into a monotone span program over Zp.
func NewPolicy(policy string, p *big.Int) (*MSPPolicy, error) {
	policy = strings.TrimSpace(policy)
	if policy == "" {
		return nil, errors.New("empty access policy")
	}
	msp, err := abe.BooleanToMSP(policy, false)
	if err != nil {
		return nil, errors.Wrapf(err, "compile policy %q", policy)
	}
	if len(msp.Mat) == 0 || len(msp.Mat[0]) == 0 {
		return nil, errors.Errorf("policy %q compiled to an empty matrix", policy)
	}
	return &MSPPolicy{policy: policy, msp: msp, P: p}, nil
}

func (m *MSPPolicy) Rows() int {
	return len(m.msp.Mat)
}

func (m *MSPPolicy) Attribute(row int) string {
	return m.msp.RowToAttrib[row]
}

func (m *MSPPolicy) Policy() string {
	return m.policy
}

func (m *MSPPolicy) Coefficients(attrs []string) (map[int]*big.Int, error) {
	return ReconstructCoefficients(m.msp, attrs, m.P)
}
