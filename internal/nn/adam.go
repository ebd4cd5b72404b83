package nn

import "math"

// adam holds first and second moment estimates for a set of parameter slices.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	ms, vs                [][]float64
}

func newAdam(params [][]float64, lr, beta1, beta2, eps float64) *adam {
	a := &adam{lr: lr, beta1: beta1, beta2: beta2, eps: eps}
	a.ms = make([][]float64, len(params))
	a.vs = make([][]float64, len(params))
	for i, p := range params {
		a.ms[i] = make([]float64, len(p))
		a.vs[i] = make([]float64, len(p))
	}
	return a
}

// step applies one bias-corrected update to params in place.
func (a *adam) step(params, grads [][]float64) {
	a.t++
	lrT := a.lr * math.Sqrt(1-math.Pow(a.beta2, float64(a.t))) / (1 - math.Pow(a.beta1, float64(a.t)))
	for i, p := range params {
		g, m, v := grads[i], a.ms[i], a.vs[i]
		for k := range p {
			m[k] = a.beta1*m[k] + (1-a.beta1)*g[k]
			v[k] = a.beta2*v[k] + (1-a.beta2)*g[k]*g[k]
			p[k] -= lrT * m[k] / (math.Sqrt(v[k]) + a.eps)
		}
	}
}
