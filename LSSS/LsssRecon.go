package LSSS

import (
	"math/big"
	"strings"

	"github.com/fentec-project/gofe/abe"
	"github.com/fentec-project/gofe/data"
	"github.com/pkg/errors"
)

/*
ReconstructCoefficients picks a minimal authorized row set I for the held
attributes and solves Σ_{i∈I} wi·Ai = (1, 0, ..., 0).

	Rows are dropped greedily in row order while the remaining rows still
	span the target, so every returned wi is non-zero and the choice is
	deterministic for a given (msp, attrs).

Output: map row index -> wi mod p
*/
func ReconstructCoefficients(msp *abe.MSP, attrs []string, p *big.Int) (map[int]*big.Int, error) {
	if msp == nil || len(msp.Mat) == 0 {
		return nil, errors.New("msp or msp.Mat is empty")
	}

	held := make(map[string]bool, len(attrs))
	for _, a := range attrs {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		held[a] = true
	}

	rows := make([]int, 0, len(msp.Mat))
	for i := range msp.Mat {
		if held[msp.RowToAttrib[i]] {
			rows = append(rows, i)
		}
	}
	if len(rows) == 0 {
		return nil, ErrUnsatisfied
	}
	if _, err := solve(msp.Mat, rows, p); err != nil {
		return nil, ErrUnsatisfied
	}

	for k := 0; k < len(rows); {
		trial := make([]int, 0, len(rows)-1)
		trial = append(trial, rows[:k]...)
		trial = append(trial, rows[k+1:]...)
		if len(trial) > 0 {
			if _, err := solve(msp.Mat, trial, p); err == nil {
				rows = trial
				continue
			}
		}
		k++
	}

	WI, err := solve(msp.Mat, rows, p)
	if err != nil {
		return nil, errors.Wrap(err, "LSSS ReconstructCoefficients: system not solvable")
	}

	wMap := make(map[int]*big.Int, len(rows))
	for k, wi := range WI {
		wMap[rows[k]] = new(big.Int).Mod(wi, p)
	}
	return wMap, nil
}

// solve finds w with w·M_rows = (1, 0, ..., 0) over Zp.
func solve(mat data.Matrix, rows []int, p *big.Int) (data.Vector, error) {
	numCols := len(mat[0])
	// the solver works in place, so it gets its own reduced copy of the rows
	SubMatrix := make(data.Matrix, len(rows))
	for k, i := range rows {
		row := make(data.Vector, numCols)
		for j := range row {
			row[j] = new(big.Int).Mod(mat[i][j], p)
		}
		SubMatrix[k] = row
	}

	targetVector := make(data.Vector, numCols)
	targetVector[0] = big.NewInt(1)
	for i := 1; i < numCols; i++ {
		targetVector[i] = big.NewInt(0)
	}

	return data.GaussianEliminationSolver(SubMatrix.Transpose(), targetVector, p)
}
