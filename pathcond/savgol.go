package pathcond

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// savGolKernel computes the Savitzky-Golay convolution kernel for the given
// odd window size and polynomial order. The kernel is the least-squares fit of
// an order-degree polynomial over the window, evaluated at the center offset:
// smoothed = sum(kernel[i] * y[i]).
func savGolKernel(window, order int) ([]float64, error) {
	half := window / 2
	design := mat.NewDense(window, order+1, nil)
	for i := 0; i < window; i++ {
		x := float64(i - half)
		pow := 1.0
		for j := 0; j <= order; j++ {
			design.Set(i, j, pow)
			pow *= x
		}
	}

	// kernel = A (A^T A)^-1 e0, the row of the projection that evaluates the
	// fitted polynomial at offset zero.
	var ata mat.Dense
	ata.Mul(design.T(), design)
	e0 := mat.NewVecDense(order+1, nil)
	e0.SetVec(0, 1)
	var z mat.VecDense
	if err := z.SolveVec(&ata, e0); err != nil {
		return nil, errors.Wrap(err, "singular design matrix")
	}
	var kernel mat.VecDense
	kernel.MulVec(design, &z)
	return kernel.RawVector().Data, nil
}

// smoothSavGol smooths the positions in place, each axis independently. The
// leading and trailing half-window samples, where the kernel does not fit, are
// left unchanged. An error means the design matrix was singular and nothing
// was modified.
func smoothSavGol(points []Waypoint, window, order int) error {
	kernel, err := savGolKernel(window, order)
	if err != nil {
		return err
	}
	half := window / 2
	src := make([]Waypoint, len(points))
	copy(src, points)
	for i := half; i < len(points)-half; i++ {
		var x, y, z float64
		for k, c := range kernel {
			p := src[i-half+k].Position
			x += c * p.X
			y += c * p.Y
			z += c * p.Z
		}
		points[i].Position.X = x
		points[i].Position.Y = y
		points[i].Position.Z = z
	}
	return nil
}
