package timeseries

type binaryOp func(a, b float64) float64

func add(a, b float64) float64 { return a + b }
func sub(a, b float64) float64 { return a - b }
func mul(a, b float64) float64 { return a * b }

// Add returns s + other. The result shares s's Timeline.
func (s *Series) Add(other *Series) (*Series, error) {
	return s.combine(other, add)
}

// Sub returns s - other. The result shares s's Timeline.
func (s *Series) Sub(other *Series) (*Series, error) {
	return s.combine(other, sub)
}

// Mul returns s * other. The result shares s's Timeline.
func (s *Series) Mul(other *Series) (*Series, error) {
	return s.combine(other, mul)
}

// AddInPlace adds other into s.
func (s *Series) AddInPlace(other *Series) error {
	return s.combineInPlace(other, add)
}

// SubInPlace subtracts other from s.
func (s *Series) SubInPlace(other *Series) error {
	return s.combineInPlace(other, sub)
}

// MulInPlace multiplies s by other.
func (s *Series) MulInPlace(other *Series) error {
	return s.combineInPlace(other, mul)
}

// AddScalar returns s + x over the same Timeline.
func (s *Series) AddScalar(x float64) *Series {
	return s.Clone().AddScalarInPlace(x)
}

// MulScalar returns s * x over the same Timeline.
func (s *Series) MulScalar(x float64) *Series {
	return s.Clone().MulScalarInPlace(x)
}

// AddScalarInPlace adds x to every value and returns s.
func (s *Series) AddScalarInPlace(x float64) *Series {
	for i := range s.values {
		s.values[i] += x
	}

	return s
}

// MulScalarInPlace multiplies every value by x and returns s.
func (s *Series) MulScalarInPlace(x float64) *Series {
	for i := range s.values {
		s.values[i] *= x
	}

	return s
}

func (s *Series) combine(other *Series, op binaryOp) (*Series, error) {
	if err := s.CheckAlignment(other); err != nil {
		return nil, err
	}

	values := make([]float64, len(s.values))
	for i, v := range s.values {
		values[i] = op(v, other.values[i])
	}

	return &Series{timeline: s.timeline, values: values}, nil
}

func (s *Series) combineInPlace(other *Series, op binaryOp) error {
	if err := s.CheckAlignment(other); err != nil {
		return err
	}

	// other may be s itself; the elementwise update reads before it writes
	for i := range s.values {
		s.values[i] = op(s.values[i], other.values[i])
	}

	return nil
}
