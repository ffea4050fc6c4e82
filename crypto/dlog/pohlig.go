package dlog

import (
	"math/big"

	"github.com/tos-network/gmim/crypto/factor"
)

// PohligHellman computes log_alpha(beta) in Z_p^*, where the order of alpha
// is the factored integer n. Each prime power q^c of n contributes the
// logarithm modulo q^c, found digit by digit with Pollard's rho in the
// subgroup of order q; the partial logs are combined with the CRT.
func (s *Solver) PohligHellman(alpha, beta, p *big.Int, n *factor.Integer) (*big.Int, error) {
	if n.Value.Sign() <= 0 {
		return nil, ErrBadOrder
	}
	var (
		result    = new(big.Int)
		ndivq     = new(big.Int)
		alphaBar  = new(big.Int)
		betaBar   = new(big.Int)
		stripped  = new(big.Int)
		qj        = new(big.Int)
		xi        = new(big.Int)
		inv       = new(big.Int)
		alphaStep = new(big.Int)
	)
	for _, f := range n.Factors {
		q := f.Prime
		stripped.Set(beta)

		ndivq.Quo(n.Value, q)
		alphaBar.Exp(alpha, ndivq, p)
		betaBar.Exp(beta, ndivq, p)
		lj, err := s.PollardRho(alphaBar, betaBar, p, q)
		if err != nil {
			return nil, err
		}
		xi.Set(lj)
		qj.SetInt64(1)

		for j := uint(1); j < f.Power; j++ {
			// remove alpha^(l_{j-1} q^{j-1}) from beta
			alphaStep.Mul(lj, qj)
			alphaStep.Neg(alphaStep)
			alphaStep.Exp(alpha, alphaStep, p)
			stripped.Mul(stripped, alphaStep).Mod(stripped, p)

			ndivq.Quo(ndivq, q)
			betaBar.Exp(stripped, ndivq, p)
			if lj, err = s.PollardRho(alphaBar, betaBar, p, q); err != nil {
				return nil, err
			}
			qj.Mul(qj, q)
			xi.Add(xi, new(big.Int).Mul(lj, qj))
		}

		// result += xi * (n/q^c) * ((n/q^c)^-1 mod q^c)
		ndivq.Quo(n.Value, f.Value)
		if inv.ModInverse(ndivq, f.Value) == nil && f.Value.Cmp(big1) != 0 {
			return nil, ErrBadOrder
		}
		inv.Mul(inv, xi).Mul(inv, ndivq)
		result.Add(result, inv).Mod(result, n.Value)
	}
	return result, nil
}

// PohligHellman is a convenience wrapper running a fresh Solver backed by
// crypto/rand.
func PohligHellman(alpha, beta, p *big.Int, n *factor.Integer) (*big.Int, error) {
	return NewSolver(nil).PohligHellman(alpha, beta, p, n)
}
