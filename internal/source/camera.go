package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gocv.io/x/gocv"

	"github.com/ayusman/swipectl/internal/capture"
	"github.com/ayusman/swipectl/internal/detector"
	"github.com/ayusman/swipectl/internal/gesture"
)

// CameraConfig wires a camera to a hand detector.
type CameraConfig struct {
	Camera   capture.Camera
	Detector detector.Detector
	// Mirror flips frames horizontally so motion matches the user's view.
	Mirror bool
	Logger *slog.Logger
	// Now stamps observations; time.Now when nil.
	Now func() time.Time
}

// Camera samples the first hand's wrist from live frames.
type Camera struct {
	camera   capture.Camera
	detector detector.Detector
	mirror   bool
	logger   *slog.Logger
	now      func() time.Time
}

// OpenCamera opens the device. Any failure is reported as ErrNoInput.
func OpenCamera(cfg CameraConfig) (*Camera, error) {
	if cfg.Camera == nil || cfg.Detector == nil {
		return nil, fmt.Errorf("%w: camera and detector are required", ErrNoInput)
	}
	if err := cfg.Camera.Open(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoInput, err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Camera{
		camera:   cfg.Camera,
		detector: cfg.Detector,
		mirror:   cfg.Mirror,
		logger:   logger.With("component", "source", "source", "camera"),
		now:      now,
	}, nil
}

// Next reads and analyzes one frame. Read failures end the stream; detector
// failures are logged and reported as a frame without a hand.
func (c *Camera) Next(ctx context.Context) (Observation, error) {
	if err := ctx.Err(); err != nil {
		return Observation{}, err
	}

	frame, err := c.camera.ReadFrame()
	if err != nil {
		return Observation{}, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	at := c.now()
	if c.mirror {
		gocv.Flip(*frame, frame, 1)
	}

	hands, err := c.detector.Detect(frame)
	if err != nil {
		c.logger.Warn("hand detection failed", "error", err)
		return Observation{At: at}, nil
	}

	return Observation{Sample: wristSample(hands), At: at}, nil
}

// Close releases the camera and the detector.
func (c *Camera) Close() error {
	return errors.Join(c.camera.Close(), c.detector.Close())
}

func wristSample(hands []detector.HandLandmarks) *gesture.Sample {
	p, ok := detector.FirstWrist(hands)
	if !ok || !p.Finite() {
		return nil
	}
	s := gesture.Sample{X: p.X, Y: p.Y}
	if !s.Valid() {
		return nil
	}
	return &s
}
