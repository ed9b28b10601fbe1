// Package Viete builds the keyword polynomial of the searchable index.
package Viete

import (
	"math/big"
)

// Build expands ∏(x - r_j) with Vieta's formulas and adds 1 to the
// constant term, so that P(r_j) = 1 for every root.
// eta[j] is the coefficient of x^j, len(eta) = len(roots)+1.
func Build(roots []*big.Int, p *big.Int) []*big.Int {
	eta := []*big.Int{big.NewInt(1)}
	for _, r := range roots {
		neg := new(big.Int).Neg(r)
		neg.Mod(neg, p)
		next := make([]*big.Int, len(eta)+1)
		for j := range next {
			next[j] = big.NewInt(0)
		}
		// (x - r)·Σ eta[j] x^j
		for j, c := range eta {
			next[j+1].Add(next[j+1], c)
			next[j].Add(next[j], new(big.Int).Mul(c, neg))
		}
		for j := range next {
			next[j].Mod(next[j], p)
		}
		eta = next
	}
	eta[0].Add(eta[0], big.NewInt(1))
	eta[0].Mod(eta[0], p)
	return eta
}

// Eval returns Σ coeffs[j]·x^j mod p (Horner).
func Eval(coeffs []*big.Int, x *big.Int, p *big.Int) *big.Int {
	acc := big.NewInt(0)
	for j := len(coeffs) - 1; j >= 0; j-- {
		acc.Mul(acc, x)
		acc.Add(acc, coeffs[j])
		acc.Mod(acc, p)
	}
	return acc
}

// Pad returns coeffs zero-extended to n entries.
func Pad(coeffs []*big.Int, n int) []*big.Int {
	out := make([]*big.Int, n)
	for j := range out {
		if j < len(coeffs) {
			out[j] = new(big.Int).Set(coeffs[j])
		} else {
			out[j] = big.NewInt(0)
		}
	}
	return out
}
