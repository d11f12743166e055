package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector returns scripted results. Each Detect call consumes the next
// queued result; once the queue is empty the fixed hands are returned.
type MockDetector struct {
	mu     sync.Mutex
	hands  []HandLandmarks
	err    error
	script [][]HandLandmarks
	calls  int
}

// NewMockDetector creates a MockDetector that sees no hands.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetHands sets the hands returned once the script is exhausted.
func (m *MockDetector) SetHands(hands []HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hands = hands
}

// SetError makes every Detect call fail.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Queue appends per-call results. A nil entry means no hand in that frame.
func (m *MockDetector) Queue(frames ...[]HandLandmarks) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, frames...)
}

// Calls returns the number of Detect calls.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockDetector) Detect(frame *gocv.Mat) ([]HandLandmarks, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if len(m.script) > 0 {
		next := m.script[0]
		m.script = m.script[1:]
		return next, nil
	}
	return m.hands, nil
}

func (m *MockDetector) Close() error {
	return nil
}

// HandAt returns a right hand whose wrist sits at (x, y).
func HandAt(x, y float64) HandLandmarks {
	h := HandLandmarks{Handedness: "Right", Score: 0.95}
	h.Points[Wrist] = Point3D{X: x, Y: y}
	h.Points[MiddleMCP] = Point3D{X: x, Y: y - 0.12}
	return h
}
