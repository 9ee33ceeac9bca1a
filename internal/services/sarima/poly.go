package sarima

// Polynomials in the backshift operator B are stored as coefficient slices
// where p[k] multiplies B^k and p[0] == 1.

func polyMul(a, b []float64) []float64 {
	out := make([]float64, len(a)+len(b)-1)
	for i, x := range a {
		if x == 0 {
			continue
		}
		for j, y := range b {
			out[i+j] += x * y
		}
	}
	return out
}

// arPoly builds 1 - c1 B^step - c2 B^(2 step) - ...
func arPoly(coeffs []float64, step int) []float64 {
	p := make([]float64, len(coeffs)*step+1)
	p[0] = 1
	for i, c := range coeffs {
		p[(i+1)*step] = -c
	}
	return p
}

// maPoly builds 1 + c1 B^step + c2 B^(2 step) + ...
func maPoly(coeffs []float64, step int) []float64 {
	p := make([]float64, len(coeffs)*step+1)
	p[0] = 1
	for i, c := range coeffs {
		p[(i+1)*step] = c
	}
	return p
}

// diffPoly builds (1 - B)^d (1 - B^s)^D.
func diffPoly(d, sd, s int) []float64 {
	p := []float64{1}
	for i := 0; i < d; i++ {
		p = polyMul(p, []float64{1, -1})
	}
	if s > 0 {
		seasonal := make([]float64, s+1)
		seasonal[0], seasonal[s] = 1, -1
		for i := 0; i < sd; i++ {
			p = polyMul(p, seasonal)
		}
	}
	return p
}

// applyPoly filters y through p: out[t-L] = sum_k p[k] y[t-k] for t >= L.
func applyPoly(p, y []float64) []float64 {
	L := len(p) - 1
	if len(y) <= L {
		return nil
	}
	out := make([]float64, len(y)-L)
	for t := L; t < len(y); t++ {
		v := 0.0
		for k, c := range p {
			if c != 0 {
				v += c * y[t-k]
			}
		}
		out[t-L] = v
	}
	return out
}

// psiWeights returns the first n coefficients of ma(B)/ar(B).
func psiWeights(ar, ma []float64, n int) []float64 {
	psi := make([]float64, n)
	for j := 0; j < n; j++ {
		v := 0.0
		if j == 0 {
			v = 1
		} else if j < len(ma) {
			v = ma[j]
		}
		for k := 1; k <= j && k < len(ar); k++ {
			v -= ar[k] * psi[j-k]
		}
		psi[j] = v
	}
	return psi
}
