package batch

import "time"

// DefaultWindow is the number of recent files the throughput estimate
// mostly reflects.
const DefaultWindow = 5

// meter keeps exponentially weighted moving averages of the byte rate and
// of the per-file duration, so estimates follow changing file sizes.
type meter struct {
	alpha   float64
	rate    float64 // bytes per second
	perFile float64 // seconds
	samples int
}

func newMeter(window int) *meter {
	if window < 1 {
		window = DefaultWindow
	}
	return &meter{alpha: 2 / float64(window+1)}
}

// observe records one finished file.
func (m *meter) observe(bytes int64, d time.Duration) {
	secs := d.Seconds()
	if secs <= 0 {
		secs = 1e-6
	}
	rate := float64(bytes) / secs

	if m.samples == 0 {
		m.rate, m.perFile = rate, secs
	} else {
		m.rate += m.alpha * (rate - m.rate)
		m.perFile += m.alpha * (secs - m.perFile)
	}
	m.samples++
}

// bps returns the current byte rate estimate.
func (m *meter) bps() float64 {
	return m.rate
}

// eta estimates the time left for remaining files. It is never negative.
func (m *meter) eta(remaining int) time.Duration {
	if remaining <= 0 || m.samples == 0 {
		return 0
	}
	return time.Duration(float64(remaining) * m.perFile * float64(time.Second))
}
