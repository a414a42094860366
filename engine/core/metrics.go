package core

import "github.com/spaghettifunk/rainfrog/engine/containers"

const AVG_COUNT = 30

// Metrics tracks frame times. FPS is refreshed every RefreshInterval seconds,
// which is also when the window title gets updated.
type Metrics struct {
	RefreshInterval float64

	frameTimes  *containers.RingQueue[float64]
	msAvg       float64
	frames      int
	accumulated float64
	fps         float64
}

func NewMetrics(refreshInterval float64) *Metrics {
	return &Metrics{
		RefreshInterval: refreshInterval,
		frameTimes:      containers.NewRingQueue[float64](AVG_COUNT),
	}
}

// Update records one frame and reports whether the FPS value was refreshed.
func (m *Metrics) Update(frameElapsedTime float64) bool {
	m.frameTimes.Push(frameElapsedTime * 1000.0)
	if m.frameTimes.IsFull() {
		sum := 0.0
		m.frameTimes.Each(func(ms float64) { sum += ms })
		m.msAvg = sum / float64(m.frameTimes.Len())
	}

	m.frames++
	m.accumulated += frameElapsedTime
	if m.accumulated > m.RefreshInterval {
		m.fps = float64(m.frames) / m.accumulated
		m.frames = 0
		m.accumulated = 0
		return true
	}
	return false
}

func (m *Metrics) FPS() float64 {
	return m.fps
}

// FrameTime is the average frame time in milliseconds over the last AVG_COUNT frames.
func (m *Metrics) FrameTime() float64 {
	return m.msAvg
}
