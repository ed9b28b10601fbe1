package LSABE

import (
	"math/big"

	"github.com/AUKUS561/LSABEMA/LSSS"
	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
)

// PartialCiphertext CTout = (CM, TI, TTI, N)
type PartialCiphertext struct {
	Data []byte
	IV   []byte
	TI   *bn256.GT
	TTI  *bn256.GT
	N    int
}

func (lsabe *LSABE) structure(ct *Ciphertext) (LSSS.AccessStructure, error) {
	if ct == nil {
		return nil, errors.New("nil ciphertext")
	}
	policy, err := ct.AccessStructure(lsabe.P)
	if err != nil {
		return nil, err
	}
	if err := ct.check(policy.Rows(), lsabe.MaxKW); err != nil {
		return nil, err
	}
	return policy, nil
}

func (td *Trapdoor) check() error {
	if td == nil || len(td.T1) != len(td.Attrs) || len(td.Authorities) != len(td.Attrs) || td.T2 == nil || td.T3 == nil || td.T5 == nil {
		return errors.New("malformed trapdoor")
	}
	for _, t1 := range td.T1 {
		if t1 == nil {
			return errors.New("malformed trapdoor")
		}
	}
	for _, t4 := range td.T4 {
		if t4 == nil {
			return errors.New("malformed trapdoor")
		}
	}
	return nil
}

func (tk *TransformKey) check() error {
	if tk == nil || tk.TK2 == nil || len(tk.TK3) != len(tk.Attrs) || len(tk.TK4) != len(tk.Attrs) || len(tk.Authorities) != len(tk.Attrs) {
		return errors.New("malformed transformation key")
	}
	for k := range tk.TK3 {
		if tk.TK3[k] == nil || tk.TK4[k] == nil {
			return errors.New("malformed transformation key")
		}
	}
	return nil
}

// Search tests T5·e(T1m, I0^{T2}·I1) == (E1·E2m)^{T3·T4m}.
// A false result with a nil error is a plain mismatch; errors mean malformed input.
func (lsabe *LSABE) Search(ct *Ciphertext, td *Trapdoor) (bool, error) {
	policy, err := lsabe.structure(ct)
	if err != nil {
		return false, err
	}
	if err := td.check(); err != nil {
		return false, err
	}
	if len(td.T4) != len(ct.I5) {
		return false, errors.Errorf("trapdoor has %d keyword terms, index has %d", len(td.T4), len(ct.I5))
	}

	w, keys, err := lsabe.authorized(ct, policy, td.Authorities, td.Attrs)
	if errors.Is(err, LSSS.ErrUnsatisfied) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	T1m := identityG1()
	E2m := identityGT()
	for i := range w {
		T1m.Add(T1m, td.T1[keys[i]])
		E2m.Add(E2m, ct.E2[i])
	}

	// T4m = Σ I5[j]·T4[j]
	T4m := big.NewInt(0)
	for j := range ct.I5 {
		T4m.Add(T4m, new(big.Int).Mul(ct.I5[j], td.T4[j]))
	}
	T4m.Mod(T4m, lsabe.P)

	//left = T5·e(T1m, I0^{T2}·I1)
	base := new(bn256.G2).ScalarMult(ct.I0, new(big.Int).Mod(td.T2, lsabe.P))
	base.Add(base, ct.I1)
	left := new(bn256.GT).Add(td.T5, bn256.Pair(T1m, base))

	//right = (E1·E2m)^{T3·T4m}
	exp := new(big.Int).Mul(td.T3, T4m)
	exp.Mod(exp, lsabe.P)
	right := new(bn256.GT).Add(ct.E1, E2m)
	right.ScalarMult(right, exp)

	return left.String() == right.String(), nil
}

// Transform computes TI = e(TK4m, I2)/e(TK2, I4m)·e(TK3m, I3) over the authorized rows.
func (lsabe *LSABE) Transform(ct *Ciphertext, tk *TransformKey) (*PartialCiphertext, error) {
	policy, err := lsabe.structure(ct)
	if err != nil {
		return nil, err
	}
	if err := tk.check(); err != nil {
		return nil, err
	}

	w, keys, err := lsabe.authorized(ct, policy, tk.Authorities, tk.Attrs)
	if err != nil {
		return nil, err
	}

	I4m := identityG2()
	TK3m := identityG1()
	TK4m := identityG1()
	Im := identityGT()
	for i, wi := range w {
		k := keys[i]
		I4m.Add(I4m, new(bn256.G2).ScalarMult(ct.I4[i], wi))
		TK3m.Add(TK3m, new(bn256.G1).ScalarMult(tk.TK3[k], wi))
		TK4m.Add(TK4m, tk.TK4[k])
		Im.Add(Im, ct.I[i])
	}

	TI := bn256.Pair(TK4m, ct.I2)
	TI.Add(TI, new(bn256.GT).Neg(bn256.Pair(tk.TK2, I4m)))
	TI.Add(TI, bn256.Pair(TK3m, ct.I3))

	return &PartialCiphertext{
		Data: ct.Data,
		IV:   ct.IV,
		TI:   TI,
		TTI:  Im,
		N:    len(w),
	}, nil
}
