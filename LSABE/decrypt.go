package LSABE

import (
	"math/big"

	"github.com/AUKUS561/LSABEMA/SymEnc"
	"github.com/fentec-project/bn256"
)

// Decrypt Υ = (TTI / TI^{1/z})^{1/N}, M = Dec(KDF(Υ), CM)
func (lsabe *LSABE) Decrypt(z *big.Int, out *PartialCiphertext) ([]byte, error) {
	if z == nil || out == nil || out.TI == nil || out.TTI == nil || out.N <= 0 {
		return nil, ErrDecrypt
	}
	zInv := lsabe.inverse(z)
	nInv := lsabe.inverse(big.NewInt(int64(out.N)))
	if zInv == nil || nInv == nil {
		return nil, ErrDecrypt
	}

	blind := new(bn256.GT).ScalarMult(out.TI, zInv)
	upsilon := new(bn256.GT).Add(out.TTI, new(bn256.GT).Neg(blind))
	upsilon.ScalarMult(upsilon, nInv)

	return SymEnc.Open(upsilon, out.Data, out.IV)
}
