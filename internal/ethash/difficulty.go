// Package ethash converts Zilliqa PoW difficulty figures into boundary
// targets and hash-power estimates.
package ethash

import "math/big"

const (
	// DividedStart is the difficulty above which Zilliqa subdivides each
	// boundary halving into DividedSteps linear steps.
	DividedStart = 32

	// DividedSteps is the number of sub-levels per difficulty level in the
	// divided region.
	DividedSteps = 8
)

// maxHash is 2^256, the size of the hash space.
var maxHash = new(big.Int).Lsh(big.NewInt(1), 256)

// DifficultyToBoundary returns the undivided boundary 2^(256-difficulty).
func DifficultyToBoundary(difficulty uint64) *big.Int {
	if difficulty >= 256 {
		return big.NewInt(1)
	}
	return new(big.Int).Rsh(maxHash, uint(difficulty))
}

// DifficultyToBoundaryDivided returns the boundary under Zilliqa's divided
// difficulty scheme. Below DividedStart it equals the plain boundary;
// above it, each halving is interpolated in DividedSteps linear steps so
// the boundary shrinks gradually instead of halving per unit.
func DifficultyToBoundaryDivided(difficulty uint64) *big.Int {
	if difficulty < DividedStart {
		return DifficultyToBoundary(difficulty)
	}

	nLevel := (difficulty - DividedStart) / DividedSteps
	mSub := (difficulty - DividedStart) % DividedSteps
	level := DividedStart + nLevel

	upper := DifficultyToBoundary(level)
	lower := DifficultyToBoundary(level + 1)

	step := new(big.Int).Sub(upper, lower)
	step.Div(step, big.NewInt(DividedSteps))

	return new(big.Int).Sub(upper, step.Mul(step, big.NewInt(int64(mSub))))
}

// BoundaryToHashPower estimates the hash rate needed to meet a boundary:
// the hash space divided by the boundary.
func BoundaryToHashPower(boundary *big.Int) float64 {
	if boundary.Sign() <= 0 {
		return 0
	}
	hp, _ := new(big.Float).Quo(
		new(big.Float).SetInt(maxHash),
		new(big.Float).SetInt(boundary),
	).Float64()
	return hp
}

// DifficultyToHashPower converts a raw difficulty figure to a hash-power
// estimate. The conversion is deterministic and monotonic: a higher
// difficulty never maps to a lower hash power.
func DifficultyToHashPower(difficulty uint64) float64 {
	return BoundaryToHashPower(DifficultyToBoundaryDivided(difficulty))
}
