package landmark

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"

	"github.com/attentive-robotics/go-headpose/internal/log"
)

// NumYuNetLandmarks is the number of facial landmarks YuNet emits per
// face: right eye, left eye, nose tip, right mouth corner, left mouth
// corner, in that order.
const NumYuNetLandmarks = 5

// YuNetConfig configures the OpenCV YuNet landmark source.
type YuNetConfig struct {
	ModelPath   string  // path to the YuNet ONNX model
	InputWidth  int     // model input width
	InputHeight int     // model input height
	Confidence  Config  // forwarded confidence knobs
	NMSThresh   float64 // non-maximum suppression threshold
}

// DefaultYuNetConfig returns production defaults for YuNet.
func DefaultYuNetConfig(modelPath string) YuNetConfig {
	return YuNetConfig{
		ModelPath:   modelPath,
		InputWidth:  320,
		InputHeight: 320,
		Confidence:  DefaultConfig(),
		NMSThresh:   0.3,
	}
}

// YuNet detects faces with OpenCV's FaceDetectorYN and emits the five
// facial landmarks of the highest-scoring face as an Observation.
type YuNet struct {
	detector gocv.FaceDetectorYN
	config   YuNetConfig
	mu       sync.Mutex // protects inference
}

// NewYuNet creates a YuNet landmark source from an ONNX model on disk.
func NewYuNet(cfg YuNetConfig) (*YuNet, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("model file not found: %s", cfg.ModelPath)
	}

	detector := gocv.NewFaceDetectorYNWithParams(
		cfg.ModelPath,
		"", // no config file needed for ONNX
		image.Pt(cfg.InputWidth, cfg.InputHeight),
		float32(cfg.Confidence.MinDetectionConfidence),
		float32(cfg.NMSThresh),
		5000, // top K
		int(gocv.NetBackendDefault),
		int(gocv.NetTargetCPU),
	)

	return &YuNet{
		detector: detector,
		config:   cfg,
	}, nil
}

// Detect finds the best face in the JPEG frame and returns its five
// landmarks in normalized coordinates, or (nil, nil) when no face
// clears the confidence threshold.
func (y *YuNet) Detect(ctx context.Context, jpeg []byte) (*Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	y.mu.Lock()
	defer y.mu.Unlock()

	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty image")
	}

	imgW := img.Cols()
	imgH := img.Rows()
	y.detector.SetInputSize(image.Pt(imgW, imgH))

	faces := gocv.NewMat()
	defer faces.Close()

	y.detector.Detect(img, &faces)

	// YuNet output format (15 columns per row):
	// 0-3: x, y, w, h (bounding box in pixels)
	// 4-13: 5 facial landmarks (x,y pairs, pixels)
	// 14: face score
	best := -1
	bestScore := float32(0)
	for r := 0; r < faces.Rows(); r++ {
		score := faces.GetFloatAt(r, 14)
		if score > bestScore {
			bestScore = score
			best = r
		}
	}
	if best < 0 {
		return nil, nil
	}

	points := make([]Point, 0, NumYuNetLandmarks)
	for i := 0; i < NumYuNetLandmarks; i++ {
		points = append(points, Point{
			X: float64(faces.GetFloatAt(best, 4+2*i)) / float64(imgW),
			Y: float64(faces.GetFloatAt(best, 5+2*i)) / float64(imgH),
		})
	}

	log.Debug("yunet landmarks", "faces", faces.Rows(), "score", bestScore)

	return &Observation{
		Points: points,
		Width:  imgW,
		Height: imgH,
	}, nil
}

// Close releases the detector resources.
func (y *YuNet) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.detector.Close()
	return nil
}

// Verify YuNet implements Source at compile time.
var _ Source = (*YuNet)(nil)
