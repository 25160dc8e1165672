package cluster

// Normalize returns v scaled to unit length as a new slice.
// A zero vector normalizes to zeros; cosine distance treats it the same either way.
func Normalize(v []float32) []float32 {
	out := make([]float32, len(v))
	n := norm(v)
	if n == 0 {
		return out
	}
	for i, x := range v {
		out[i] = float32(float64(x) / n)
	}
	return out
}
