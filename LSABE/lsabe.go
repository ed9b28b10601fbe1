// Package LSABE implements a multi-authority lightweight searchable
// attribute-based encryption scheme: encryption with a keyword index,
// trapdoor search and outsourced (transform) decryption.
package LSABE

import (
	"math/big"

	"github.com/AUKUS561/LSABEMA/LSSS"
	"github.com/fentec-project/bn256"
	"github.com/fentec-project/gofe/sample"
	"github.com/pkg/errors"
)

// DefaultMaxKeywords is the keyword capacity of an index.
const DefaultMaxKeywords = 10

type LSABE struct {
	P     *big.Int
	MaxKW int // maxKw, fixed per deployment
}

func NewLSABE(maxKW int) *LSABE {
	if maxKW <= 0 {
		maxKW = DefaultMaxKeywords
	}
	return &LSABE{
		P:     bn256.Order,
		MaxKW: maxKW,
	}
}

// Policy compiles a boolean policy for EncryptAndIndexGen.
func (lsabe *LSABE) Policy(policy string) (*LSSS.MSPPolicy, error) {
	return LSSS.NewPolicy(policy, lsabe.P)
}

// NewBlinding samples the per-query scalar z.
func (lsabe *LSABE) NewBlinding() (*big.Int, error) {
	return lsabe.sampleStar()
}

// Zp* sample
func (lsabe *LSABE) sampleStar() (*big.Int, error) {
	return sample.NewUniformRange(big.NewInt(1), lsabe.P).Sample()
}

// Zp sample
func (lsabe *LSABE) sample() (*big.Int, error) {
	return sample.NewUniform(lsabe.P).Sample()
}

func (lsabe *LSABE) inverse(x *big.Int) *big.Int {
	r := new(big.Int).Mod(x, lsabe.P)
	if r.Sign() == 0 {
		return nil
	}
	return r.ModInverse(r, lsabe.P)
}

func identityG1() *bn256.G1 {
	return new(bn256.G1).ScalarBaseMult(big.NewInt(0))
}

func identityG2() *bn256.G2 {
	return new(bn256.G2).ScalarBaseMult(big.NewInt(0))
}

func identityGT() *bn256.GT {
	return new(bn256.GT).ScalarBaseMult(big.NewInt(0))
}

// keyLabel names a key share by issuing authority and attribute
type keyLabel struct {
	authority int
	attr      string
}

// rowKeys maps each row of ct to the position of the key share issued for ρ(i)
// by the row's authority; held lists ρ(i) of the mapped rows.
func rowKeys(ct *Ciphertext, policy LSSS.AccessStructure, authorities []int, attrs []string) (keys map[int]int, held []string) {
	idx := make(map[keyLabel]int, len(attrs))
	for k, a := range attrs {
		l := keyLabel{authority: authorities[k], attr: a}
		if _, ok := idx[l]; !ok {
			idx[l] = k
		}
	}
	keys = make(map[int]int)
	for i := 0; i < policy.Rows(); i++ {
		if k, ok := idx[keyLabel{authority: ct.Authorities[i], attr: policy.Attribute(i)}]; ok {
			keys[i] = k
			held = append(held, policy.Attribute(i))
		}
	}
	return keys, held
}

// authorized returns w over the rows the labelled key shares cover
func (lsabe *LSABE) authorized(ct *Ciphertext, policy LSSS.AccessStructure, authorities []int, attrs []string) (map[int]*big.Int, map[int]int, error) {
	keys, held := rowKeys(ct, policy, authorities, attrs)
	w, err := policy.Coefficients(held)
	if err != nil {
		return nil, nil, err
	}
	for i := range w {
		if _, ok := keys[i]; !ok {
			return nil, nil, errors.Errorf("row %d has no key share from authority %d", i, ct.Authorities[i])
		}
	}
	return w, keys, nil
}
