package ekf

import matrix "github.com/skelterjohn/go.matrix"

// setBlock3 writes a 3x3 array into m starting at (rowOff, colOff), scaled
// by s. Used to assemble the 15x15/15x12 Jacobians from the per-axis
// rotation/skew blocks the algorithm works in.
func setBlock3(m *matrix.DenseMatrix, rowOff, colOff int, block [3][3]float64, s float64) {
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(rowOff+i, colOff+j, s*block[i][j])
		}
	}
}

// setIdentity3 writes s*I3 into m starting at (rowOff, colOff).
func setIdentity3(m *matrix.DenseMatrix, rowOff, colOff int, s float64) {
	for i := 0; i < 3; i++ {
		m.Set(rowOff+i, colOff+i, s)
	}
}

// setIdentity2 writes s*I2 into m starting at (rowOff, colOff); used for
// the GNSS N/E measurement-noise blocks, which are 2x2, not 3x3.
func setIdentity2(m *matrix.DenseMatrix, rowOff, colOff int, s float64) {
	for i := 0; i < 2; i++ {
		m.Set(rowOff+i, colOff+i, s)
	}
}

// mat3Mul multiplies two 3x3 arrays, a*b.
func mat3Mul(a, b [3][3]float64) [3][3]float64 {
	var out [3][3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			var sum float64
			for k := 0; k < 3; k++ {
				sum += a[i][k] * b[k][j]
			}
			out[i][j] = sum
		}
	}
	return out
}

// mat3Vec applies a 3x3 array to a 3-vector given as (x,y,z), returning
// (x,y,z).
func mat3Vec(m [3][3]float64, x, y, z float64) (float64, float64, float64) {
	return m[0][0]*x + m[0][1]*y + m[0][2]*z,
		m[1][0]*x + m[1][1]*y + m[1][2]*z,
		m[2][0]*x + m[2][1]*y + m[2][2]*z
}
