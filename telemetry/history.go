package telemetry

// PopulationSample is one point of the population time series.
type PopulationSample struct {
	Tick      int32
	Predators int
	Prey      int
}

// History is a bounded ring of population samples, the read-only feed for
// external time-series plotting. When full, the oldest sample is dropped.
type History struct {
	samples []PopulationSample
	next    int
	count   int
}

// NewHistory creates a history holding up to capacity samples.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{samples: make([]PopulationSample, capacity)}
}

// Append records a sample, evicting the oldest if the ring is full.
func (h *History) Append(s PopulationSample) {
	h.samples[h.next] = s
	h.next = (h.next + 1) % len(h.samples)
	if h.count < len(h.samples) {
		h.count++
	}
}

// Len returns the number of stored samples.
func (h *History) Len() int {
	return h.count
}

// Samples returns the stored samples in chronological order as a copy.
func (h *History) Samples() []PopulationSample {
	out := make([]PopulationSample, 0, h.count)
	start := h.next - h.count
	if start < 0 {
		start += len(h.samples)
	}
	for i := 0; i < h.count; i++ {
		out = append(out, h.samples[(start+i)%len(h.samples)])
	}
	return out
}
