package tensor

import (
	"runtime"

	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"

	"github.com/born-ml/gradtape/internal/parallel"
)

// batchConfig splits large batched products across goroutines. Each batch
// element writes a disjoint slice of the output.
var batchConfig = parallel.Config{
	Enabled:      runtime.NumCPU() > 1,
	NumWorkers:   runtime.NumCPU(),
	MinChunkSize: 16,
}

// MatMul performs (batched) matrix multiplication a · b.
//
// Supported forms:
//   - (M, K) · (K, N) → (M, N)
//   - (K) · (K, N) → (N)  (row vector times matrix)
//   - (B, M, K) · (B, K, N) → (B, M, N), likewise for rank 4
//   - (B, M, K) · (K, N) → (B, M, N)  (b shared across the batch)
func MatMul[T Float](a, b *Buffer[T]) (*Buffer[T], error) {
	plan, err := planMatMul(a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	return runPlan(plan, blas.NoTrans, blas.NoTrans, a.data, b.data), nil
}

// MatMulTransposed computes a · bᵀ, transposing the last two axes of b.
//
// Example: (M, K) · (N, K)ᵀ → (M, N)
func MatMulTransposed[T Float](a, b *Buffer[T]) (*Buffer[T], error) {
	plan, err := planMatMulTransposed(a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	return runPlan(plan, blas.NoTrans, blas.Trans, a.data, b.data), nil
}

// TransposedMatMul computes aᵀ · b, transposing the last two axes of a.
// Rank-1 operands are treated as single-row matrices (outer product).
//
// Example: (K, M)ᵀ · (K, N) → (M, N)
func TransposedMatMul[T Float](a, b *Buffer[T]) (*Buffer[T], error) {
	plan, err := planTransposedMatMul(a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	return runPlan(plan, blas.Trans, blas.NoTrans, a.data, b.data), nil
}

// runPlan executes p as one Gemm call per batch element.
func runPlan[T Float](p matmulPlan, tA, tB blas.Transpose, a, b []T) *Buffer[T] {
	out := Zeros[T](p.out)
	aSize, bSize, cSize := p.m*p.k, p.k*p.n, p.m*p.n

	lda := p.k
	if tA == blas.Trans {
		lda = p.m
	}
	ldb := p.n
	if tB == blas.Trans {
		ldb = p.k
	}

	parallel.For(p.batch, func(i int) {
		ao, bo := i*aSize, i*bSize
		if p.aShared {
			ao = 0
		}
		if p.bShared {
			bo = 0
		}
		gemm(tA, tB, p.m, p.n, p.k,
			a[ao:ao+aSize], lda,
			b[bo:bo+bSize], ldb,
			out.data[i*cSize:(i+1)*cSize], p.n)
	}, batchConfig)
	return out
}

// gemm dispatches C = op(A) · op(B) to the gonum BLAS implementation for T.
func gemm[T Float](tA, tB blas.Transpose, m, n, k int, a []T, lda int, b []T, ldb int, c []T, ldc int) {
	switch a := any(a).(type) {
	case []float32:
		blas32.Implementation().Sgemm(tA, tB, m, n, k,
			1, a, lda, any(b).([]float32), ldb,
			0, any(c).([]float32), ldc)
	case []float64:
		blas64.Implementation().Dgemm(tA, tB, m, n, k,
			1, a, lda, any(b).([]float64), ldb,
			0, any(c).([]float64), ldc)
	}
}
