package LSABE

import (
	"math/big"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
)

// Trapdoor TD = (T1, T2, T3, T4, T5). Authorities and Attrs label T1.
type Trapdoor struct {
	Authorities []int
	Attrs       []string
	T1          []*bn256.G1 //K1^u
	T2          *big.Int    //hGID
	T3          *big.Int    //uρ2/maxKw
	T4          []*big.Int
	T5          *bn256.GT //e(g,f)^u
}

// TransformKey TK = (TK2, TK3, TK4), the key re-randomized by z.
// Authorities and Attrs label TK3/TK4.
type TransformKey struct {
	Authorities []int
	Attrs       []string
	TK2         *bn256.G1 //HGID^z
	TK3         []*bn256.G1
	TK4         []*bn256.G1
}

// slots repeats query cyclically to exactly maxKW entries
func slots(query []string, maxKW int) []string {
	out := make([]string, maxKW)
	for c := range out {
		out[c] = query[c%len(query)]
	}
	return out
}

func checkGID(sk *UserSecretKey, gid string) error {
	if sk == nil || len(sk.Keys) == 0 {
		return errors.New("empty secret key")
	}
	if sk.GID != "" && sk.GID != gid {
		return errors.Errorf("secret key belongs to %q, not %q", sk.GID, gid)
	}
	return nil
}

// TrapdoorGen->TD
func (lsabe *LSABE) TrapdoorGen(pp *PublicParams, sk *UserSecretKey, gid string, query []string) (*Trapdoor, error) {
	if pp == nil {
		return nil, setupErr("global", "missing public parameters")
	}
	if len(query) == 0 || len(query) > lsabe.MaxKW {
		return nil, errors.Wrapf(ErrKeywords, "%d query keywords, capacity %d", len(query), lsabe.MaxKW)
	}
	if err := checkGID(sk, gid); err != nil {
		return nil, err
	}

	//u, ρ2 ∈ Zp*
	u, err := lsabe.sampleStar()
	if err != nil {
		return nil, err
	}
	rho2, err := lsabe.sampleStar()
	if err != nil {
		return nil, err
	}

	td := &Trapdoor{
		Authorities: sk.Authorities(),
		Attrs:       sk.Attributes(),
		T1:          make([]*bn256.G1, len(sk.Keys)),
		T2:          HashScalar(DomainGID, gid),
		T4:          make([]*big.Int, lsabe.MaxKW+1),
		T5:          new(bn256.GT).ScalarMult(pp.EGF(), u),
	}
	for k, key := range sk.Keys {
		td.T1[k] = new(bn256.G1).ScalarMult(key.K1, u)
	}

	// T3 = uρ2/maxKw
	td.T3 = new(big.Int).Mul(u, rho2)
	td.T3.Mul(td.T3, lsabe.inverse(big.NewInt(int64(lsabe.MaxKW))))
	td.T3.Mod(td.T3, lsabe.P)

	// T4[j] = Σ_c H(kw_c)^j / ρ2
	rho2Inv := lsabe.inverse(rho2)
	hashes := make([]*big.Int, 0, lsabe.MaxKW)
	for _, kw := range slots(query, lsabe.MaxKW) {
		hashes = append(hashes, HashScalar(DomainKeyword, kw))
	}
	powers := make([]*big.Int, len(hashes))
	for c := range powers {
		powers[c] = big.NewInt(1)
	}
	for j := range td.T4 {
		sum := big.NewInt(0)
		for c, h := range hashes {
			sum.Add(sum, powers[c])
			powers[c] = new(big.Int).Mul(powers[c], h)
			powers[c].Mod(powers[c], lsabe.P)
		}
		sum.Mul(sum, rho2Inv)
		td.T4[j] = sum.Mod(sum, lsabe.P)
	}
	return td, nil
}

// TransKeyGen->TK. z comes from NewBlinding, stays with the user and is used once.
func (lsabe *LSABE) TransKeyGen(sk *UserSecretKey, z *big.Int, gid string) (*TransformKey, error) {
	if err := checkGID(sk, gid); err != nil {
		return nil, err
	}
	if z == nil || new(big.Int).Mod(z, lsabe.P).Sign() == 0 {
		return nil, errors.New("blinding scalar must be non-zero")
	}
	id, err := NewIdentity(gid)
	if err != nil {
		return nil, err
	}
	tk := &TransformKey{
		Authorities: sk.Authorities(),
		Attrs:       sk.Attributes(),
		TK2:         new(bn256.G1).ScalarMult(id.Point, z),
		TK3:         make([]*bn256.G1, len(sk.Keys)),
		TK4:         make([]*bn256.G1, len(sk.Keys)),
	}
	for k, key := range sk.Keys {
		tk.TK3[k] = new(bn256.G1).ScalarMult(key.K3, z)
		tk.TK4[k] = new(bn256.G1).ScalarMult(key.K4, z)
	}
	return tk, nil
}
