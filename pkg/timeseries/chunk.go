package timeseries

// chunk is the half-open index range [start, end).
type chunk struct {
	start int
	end   int
}

// partition splits [0, n) into contiguous chunks, one per worker. The last chunk absorbs
// the remainder. Workers are clamped to [1, n].
func partition(n, workers int) []chunk {
	if n <= 0 {
		return nil
	}

	if workers < 1 {
		workers = 1
	}

	if workers > n {
		workers = n
	}

	size := n / workers
	chunks := make([]chunk, workers)

	for i := range chunks {
		start := i * size
		end := start + size

		if i == workers-1 {
			end = n
		}

		chunks[i] = chunk{start: start, end: end}
	}

	return chunks
}
