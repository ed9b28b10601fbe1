package LSABE

import (
	"crypto/rand"
	"math/big"

	"github.com/AUKUS561/LSABEMA/LSSS"
	"github.com/AUKUS561/LSABEMA/SymEnc"
	"github.com/AUKUS561/LSABEMA/Viete"
	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
)

// Ciphertext CT = (CM, I, I0..I3, I4, I5, E1, E2) plus the policy the rows come from
// and the authority each row was resolved to.
type Ciphertext struct {
	Data        []byte //CM
	IV          []byte //CM iv
	Authorities []int
	I           []*bn256.GT
	I0          *bn256.G2 //g^b
	I1          *bn256.G2 //g^{λb}
	I2          *bn256.G2 //g^s
	I3          *bn256.G2 //g^{ρ1}
	I4          []*bn256.G2
	I5          []*big.Int
	E1          *bn256.GT //e(g,f)^{ρ1}
	E2          []*bn256.GT
	Policy      string
}

// AccessStructure recompiles (A, ρ) from the policy.
func (ct *Ciphertext) AccessStructure(p *big.Int) (LSSS.AccessStructure, error) {
	return LSSS.NewPolicy(ct.Policy, p)
}

// check lengths against n rows and capacity maxKW
func (ct *Ciphertext) check(n, maxKW int) error {
	switch {
	case len(ct.I) != n || len(ct.I4) != n || len(ct.E2) != n || len(ct.Authorities) != n:
		return errors.Errorf("ciphertext has %d/%d/%d/%d row entries, policy has %d rows", len(ct.I), len(ct.I4), len(ct.E2), len(ct.Authorities), n)
	case len(ct.I5) != maxKW+1:
		return errors.Errorf("ciphertext has %d index coefficients, want %d", len(ct.I5), maxKW+1)
	case ct.I0 == nil || ct.I1 == nil || ct.I2 == nil || ct.I3 == nil || ct.E1 == nil:
		return errors.New("ciphertext is missing index elements")
	}
	for i := 0; i < n; i++ {
		if ct.I[i] == nil || ct.I4[i] == nil || ct.E2[i] == nil {
			return errors.Errorf("ciphertext row %d is missing elements", i)
		}
	}
	for j, x := range ct.I5 {
		if x == nil {
			return errors.Errorf("ciphertext index coefficient %d is missing", j)
		}
	}
	return nil
}

// resolve ρ(i) to the first authority publishing it
func resolve(auths []*Authority, attr string) (*Authority, *AttributePublic, bool) {
	for _, a := range auths {
		if i := a.Index(attr); i >= 0 {
			return a, a.APK[i], true
		}
	}
	return nil, nil, false
}

// EncryptAndIndexGen encrypts message under policy and builds the keyword index.
// Only the public half (ATT, APK) of each authority is read.
func (lsabe *LSABE) EncryptAndIndexGen(pp *PublicParams, auths []*Authority, policy LSSS.AccessStructure, message []byte, keywords []string) (*Ciphertext, error) {
	if pp == nil {
		return nil, setupErr("global", "missing public parameters")
	}
	if len(keywords) == 0 || len(keywords) > lsabe.MaxKW {
		return nil, errors.Wrapf(ErrKeywords, "%d keywords, capacity %d", len(keywords), lsabe.MaxKW)
	}
	for _, a := range auths {
		if err := a.Validate(); err != nil {
			return nil, &SetupError{Artifact: "authority", Err: err}
		}
	}
	n := policy.Rows()
	apk := make([]*AttributePublic, n)
	issuers := make([]int, n)
	for i := 0; i < n; i++ {
		a, pk, ok := resolve(auths, policy.Attribute(i))
		if !ok {
			return nil, setupErr("authority", "no authority publishes attribute %q", policy.Attribute(i))
		}
		apk[i], issuers[i] = pk, a.ID
	}

	// 1. Υ ∈ GT, CM = Enc(KDF(Υ), M)
	_, upsilon, err := bn256.RandomGT(rand.Reader)
	if err != nil {
		return nil, errors.Wrap(err, "sample Υ")
	}
	data, iv, err := SymEnc.Seal(upsilon, message)
	if err != nil {
		return nil, err
	}

	// 2. eta from the keyword roots
	roots := make([]*big.Int, len(keywords))
	for k, kw := range keywords {
		roots[k] = HashScalar(DomainKeyword, kw)
	}
	eta := Viete.Pad(Viete.Build(roots, lsabe.P), lsabe.MaxKW+1)

	// 3. ρ1 ∈ Zp*, b ∈ Zp, v with s = v[0]
	rho1, err := lsabe.sampleStar()
	if err != nil {
		return nil, err
	}
	b, err := lsabe.sample()
	if err != nil {
		return nil, err
	}
	v, err := policy.RandVector()
	if err != nil {
		return nil, errors.Wrap(err, "sample share vector")
	}
	s := new(big.Int).Mod(v[0], lsabe.P)

	// 4.
	ct := &Ciphertext{
		Data:        data,
		IV:          iv,
		Authorities: issuers,
		I0:          new(bn256.G2).ScalarMult(pp.G2, b),
		I1:          new(bn256.G2).ScalarMult(pp.GLambda, b),
		I2:          new(bn256.G2).ScalarMult(pp.G2, s),
		I3:          new(bn256.G2).ScalarMult(pp.G2, rho1),
		I:           make([]*bn256.GT, n),
		I4:          make([]*bn256.G2, n),
		E2:          make([]*bn256.GT, n),
		I5:          make([]*big.Int, len(eta)),
		Policy:      policy.Policy(),
	}

	// 5. per row
	brho1 := new(big.Int).Mul(b, rho1)
	brho1.Mod(brho1, lsabe.P)
	for i := 0; i < n; i++ {
		lambdaI, err := policy.Share(i, v)
		if err != nil {
			return nil, err
		}
		//I[i] = Υ·e(g,g)^{αs}
		ct.I[i] = new(bn256.GT).Add(upsilon, new(bn256.GT).ScalarMult(apk[i].EggAlpha, s))
		//I4[i] = g^{βλi}·g^{ρ1 y}
		ct.I4[i] = new(bn256.G2).Add(
			new(bn256.G2).ScalarMult(apk[i].GBeta, lambdaI),
			new(bn256.G2).ScalarMult(apk[i].GY, rho1),
		)
		//E2[i] = e(g,g)^{αbρ1}
		ct.E2[i] = new(bn256.GT).ScalarMult(apk[i].EggAlpha, brho1)
	}

	// 6. E1 = e(g,f)^{ρ1}
	ct.E1 = new(bn256.GT).ScalarMult(pp.EGF(), rho1)

	// 7. I5[j] = eta[j]/ρ1
	rho1Inv := lsabe.inverse(rho1)
	for j, c := range eta {
		ct.I5[j] = new(big.Int).Mul(c, rho1Inv)
		ct.I5[j].Mod(ct.I5[j], lsabe.P)
	}
	return ct, nil
}
