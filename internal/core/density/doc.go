// Package density implements discrete probability distributions over integer
// outcomes and the algebra used to combine them.
//
// A Density maps integer results to probability mass. Densities are immutable
// values: every operation returns a new Density and never touches its inputs,
// so the same Density can be shared freely between branches of a larger
// computation.
//
// # Composition
//
// Binary operations (Add, Sub, Mul, Max, Min, BinOp) compute the pushforward
// distribution over the Cartesian product of both supports. ArithMult repeats
// a Density by self-convolution. MultiDensity groups several independent
// densities and reduces one draw of each with an order statistic such as
// KeepHighest or DropLowest.
//
// # Queries
//
// Comparisons (Eq, Lt, Ge, ...) reduce two densities to the probability that
// the relation holds. Expected, Variance, CDF, InverseCDF and Median describe a
// single Density. Conditional restricts and renormalizes; Summed answers renewal
// questions such as "how many draws fit below a goal".
//
// # Validity
//
// Masses are expected to sum to 1.0 within Tolerance. Construction never checks
// this; call IsValid when building a Density from external data.
package density
