// Package sensitivity computes partial derivative matrices of FMU
// variables: the Jacobian d(unknowns)/d(knowns) at the instance's current
// operating point.
//
// Two paths produce the matrix. When the FMU advertises native
// directional derivative support, each column comes from one native call
// and is exact to the FMU's own precision. Otherwise the engine falls
// back to central-difference sampling: each known variable is perturbed
// in both directions, the unknowns are read back, and the perturbed
// variable is restored before the next column. The restoration happens
// unconditionally, including on the error path, so a failed computation
// never leaves the instance at a shifted operating point.
//
// When the manifest declares per-variable dependency information, entries
// that provably cannot depend on the perturbed variable are reported as
// exact zeros without sampling them.
package sensitivity
