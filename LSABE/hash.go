package LSABE

import (
	"crypto/sha256"
	"math/big"

	"github.com/fentec-project/bn256"
	"github.com/pkg/errors"
)

// Domain separates the inputs of the random oracles.
type Domain string

const (
	DomainGID     Domain = "gid"
	DomainKeyword Domain = "kw"
)

// HashScalar H: {0,1}* -> Zp
func HashScalar(d Domain, msg string) *big.Int {
	h := sha256.Sum256([]byte("lsabe/zp/" + string(d) + "/" + msg))
	z := new(big.Int).SetBytes(h[:])
	return z.Mod(z, bn256.Order)
}

// HashGroup H: {0,1}* -> G1
func HashGroup(d Domain, msg string) (*bn256.G1, error) {
	p, err := bn256.HashG1("lsabe/g1/" + string(d) + "/" + msg)
	if err != nil {
		return nil, errors.Wrap(err, "hash to G1")
	}
	return p, nil
}

// Identity holds both hashes of a GID. Scalar is only ever an exponent
// and Point only ever a base, the types keep them apart.
type Identity struct {
	GID    string
	Scalar *big.Int  //hGID
	Point  *bn256.G1 //HGID
}

func NewIdentity(gid string) (*Identity, error) {
	if gid == "" {
		return nil, errors.New("empty GID")
	}
	point, err := HashGroup(DomainGID, gid)
	if err != nil {
		return nil, err
	}
	return &Identity{
		GID:    gid,
		Scalar: HashScalar(DomainGID, gid),
		Point:  point,
	}, nil
}
