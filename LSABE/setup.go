package LSABE

import (
	"crypto/rand"
	"math/big"
	"strings"
	"time"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
)

// PublicParams pp = (f, g, g^λ)
type PublicParams struct {
	F       *bn256.G1 //f
	G1      *bn256.G1 //g
	G2      *bn256.G2 //g in G2 only for pairing
	GLambda *bn256.G2 //g^λ
}

// MasterKey msk = λ
type MasterKey struct {
	Lambda *big.Int
}

// EGG e(g,g)
func (pp *PublicParams) EGG() *bn256.GT {
	return bn256.Pair(pp.G1, pp.G2)
}

// EGF e(g,f)
func (pp *PublicParams) EGF() *bn256.GT {
	return bn256.Pair(pp.F, pp.G2)
}

// GlobalSetup->pp,msk. Running it again invalidates every authority and user key.
func (lsabe *LSABE) GlobalSetup() (*PublicParams, *MasterKey, error) {
	_, f, err := bn256.RandomG1(rand.Reader)
	if err != nil {
		return nil, nil, errors.Wrap(err, "sample f")
	}
	// g1 and g2 share the exponent r
	r, err := lsabe.sampleStar()
	if err != nil {
		return nil, nil, err
	}
	lambda, err := lsabe.sample()
	if err != nil {
		return nil, nil, err
	}
	g1 := new(bn256.G1).ScalarBaseMult(r)
	g2 := new(bn256.G2).ScalarBaseMult(r)
	return &PublicParams{
		F:       f,
		G1:      g1,
		G2:      g2,
		GLambda: new(bn256.G2).ScalarMult(g2, lambda),
	}, &MasterKey{Lambda: lambda}, nil
}

// AttributeSecret ASK_i = (α, y, β)
type AttributeSecret struct {
	Alpha, Y, Beta *big.Int
}

// AttributePublic APK_i = (e(g,g)^α, g^y, g^β)
type AttributePublic struct {
	EggAlpha *bn256.GT
	GY       *bn256.G2
	GBeta    *bn256.G2
}

// Authority holds ATT/ASK/APK; position i links a name to its keys.
// ASK is nil when only the public half was loaded.
type Authority struct {
	ID      int
	Version int64
	ATT     []string
	ASK     []*AttributeSecret
	APK     []*AttributePublic
}

// Validate checks the parallel sequences.
func (a *Authority) Validate() error {
	if len(a.ATT) == 0 {
		return errors.Errorf("authority %d has no attributes", a.ID)
	}
	if len(a.APK) != len(a.ATT) {
		return errors.Errorf("authority %d: %d attributes but %d public keys", a.ID, len(a.ATT), len(a.APK))
	}
	if a.ASK != nil && len(a.ASK) != len(a.ATT) {
		return errors.Errorf("authority %d: %d attributes but %d secret keys", a.ID, len(a.ATT), len(a.ASK))
	}
	return nil
}

// Index returns the position of attribute name, or -1.
func (a *Authority) Index(name string) int {
	for i, n := range a.ATT {
		if n == name {
			return i
		}
	}
	return -1
}

// ValidAttribute rejects names the policy parser cannot carry.
func ValidAttribute(name string) error {
	switch {
	case name == "":
		return errors.New("empty attribute name")
	case strings.ContainsAny(name, " \t\r\n()"):
		return errors.Errorf("attribute %q contains whitespace or parentheses", name)
	case strings.EqualFold(name, "AND") || strings.EqualFold(name, "OR"):
		return errors.Errorf("attribute %q is a policy keyword", name)
	}
	return nil
}

// AuthoritySetup->ATT,ASK,APK
func (lsabe *LSABE) AuthoritySetup(pp *PublicParams, id int, names []string) (*Authority, error) {
	artifact := "authority"
	if pp == nil {
		return nil, setupErr(artifact, "missing public parameters")
	}
	if len(names) == 0 {
		return nil, setupErr(artifact, "no attribute names")
	}
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if err := ValidAttribute(n); err != nil {
			return nil, &SetupError{Artifact: artifact, Err: err}
		}
		if seen[n] {
			return nil, setupErr(artifact, "duplicate attribute %q", n)
		}
		seen[n] = true
	}

	egg := pp.EGG()
	auth := &Authority{
		ID:      id,
		Version: time.Now().UnixNano(),
		ATT:     append([]string(nil), names...),
		ASK:     make([]*AttributeSecret, len(names)),
		APK:     make([]*AttributePublic, len(names)),
	}
	for i := range names {
		//α, y ∈ Zp*, β ∈ Zp
		alpha, err := lsabe.sampleStar()
		if err != nil {
			return nil, err
		}
		y, err := lsabe.sampleStar()
		if err != nil {
			return nil, err
		}
		beta, err := lsabe.sample()
		if err != nil {
			return nil, err
		}
		auth.ASK[i] = &AttributeSecret{Alpha: alpha, Y: y, Beta: beta}
		auth.APK[i] = &AttributePublic{
			EggAlpha: new(bn256.GT).ScalarMult(egg, alpha),
			GY:       new(bn256.G2).ScalarMult(pp.G2, y),
			GBeta:    new(bn256.G2).ScalarMult(pp.G2, beta),
		}
	}
	return auth, nil
}

// AttributeKey (K1, K3, K4) for one attribute
type AttributeKey struct {
	Authority int
	Attr      string
	K1        *bn256.G1 //g^(α/(λ+hGID))
	K3        *bn256.G1 //HGID^y
	K4        *bn256.G1 //g^α·HGID^β
}

// UserSecretKey is the key share set of one GID, possibly from several authorities.
type UserSecretKey struct {
	GID  string
	Keys []*AttributeKey
}

// Attributes lists the attribute of every key, in key order.
func (sk *UserSecretKey) Attributes() []string {
	attrs := make([]string, len(sk.Keys))
	for k, key := range sk.Keys {
		attrs[k] = key.Attr
	}
	return attrs
}

// Authorities lists the issuing authority of every key, in key order.
func (sk *UserSecretKey) Authorities() []int {
	ids := make([]int, len(sk.Keys))
	for k, key := range sk.Keys {
		ids[k] = key.Authority
	}
	return ids
}

// MergeKeys concatenates key shares of the same GID.
func MergeKeys(keys ...*UserSecretKey) (*UserSecretKey, error) {
	if len(keys) == 0 {
		return nil, errors.New("no keys to merge")
	}
	merged := &UserSecretKey{GID: keys[0].GID}
	for _, sk := range keys {
		if sk.GID != merged.GID {
			return nil, errors.Errorf("cannot merge keys of %q and %q", merged.GID, sk.GID)
		}
		merged.Keys = append(merged.Keys, sk.Keys...)
	}
	return merged, nil
}

// SecretKeyGen issues one key per requested name found in auth.ATT.
// Unknown names are skipped without error; compare len(sk.Keys) with len(attrs).
func (lsabe *LSABE) SecretKeyGen(pp *PublicParams, msk *MasterKey, auth *Authority, gid string, attrs []string) (*UserSecretKey, error) {
	if pp == nil || msk == nil {
		return nil, setupErr("global", "missing public parameters or master key")
	}
	if auth == nil || auth.ASK == nil {
		return nil, setupErr("authority", "missing authority secret keys")
	}
	if err := auth.Validate(); err != nil {
		return nil, &SetupError{Artifact: "authority", Err: err}
	}
	id, err := NewIdentity(gid)
	if err != nil {
		return nil, err
	}

	// 1/(λ+hGID)
	inv := lsabe.inverse(new(big.Int).Add(msk.Lambda, id.Scalar))
	if inv == nil {
		return nil, errors.New("λ + H(GID) = 0")
	}

	sk := &UserSecretKey{GID: gid}
	for _, name := range attrs {
		i := auth.Index(name)
		if i < 0 {
			continue
		}
		ask := auth.ASK[i]
		e := new(big.Int).Mul(ask.Alpha, inv)
		e.Mod(e, lsabe.P)
		K1 := new(bn256.G1).ScalarMult(pp.G1, e)
		K3 := new(bn256.G1).ScalarMult(id.Point, ask.Y)
		K4 := new(bn256.G1).ScalarMult(pp.G1, ask.Alpha)
		K4.Add(K4, new(bn256.G1).ScalarMult(id.Point, ask.Beta))
		sk.Keys = append(sk.Keys, &AttributeKey{
			Authority: auth.ID,
			Attr:      name,
			K1:        K1,
			K3:        K3,
			K4:        K4,
		})
	}
	return sk, nil
}
