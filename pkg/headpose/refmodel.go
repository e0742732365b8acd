package headpose

import (
	"bufio"
	"bytes"
	"embed"
	"io"
	"os"
	"strconv"
	"sync"

	"github.com/attentive-robotics/go-headpose/internal/log"
)

//go:embed data/*.txt
var embeddedModels embed.FS

// Point3 is a reference landmark position in model space (millimetres).
type Point3 struct {
	X, Y, Z float64
}

// ReferenceModel is the fixed 3-D facial landmark template used for
// every solve. Points correspond positionally with the first N
// landmarks delivered by the landmark source. Fixed after load.
type ReferenceModel struct {
	points []Point3
}

// Points returns the model's landmark template.
func (m *ReferenceModel) Points() []Point3 {
	return m.points
}

// Len returns the number of template points.
func (m *ReferenceModel) Len() int {
	return len(m.points)
}

// Load parses a text resource of whitespace-separated floating-point
// numbers, each consecutive triple forming one 3-D point. Loading never
// fails: an unreadable source, non-numeric tokens or a token count not
// divisible by 3 degrade to a single dummy point at the origin so that
// downstream components remain operable.
func Load(r io.Reader) *ReferenceModel {
	values, err := scanFloats(r)
	if err != nil {
		log.Warn("reference model unreadable, using placeholder", "error", err)
		return placeholderModel()
	}
	if len(values) == 0 || len(values)%3 != 0 {
		log.Warn("reference model token count not divisible by 3, using placeholder",
			"tokens", len(values))
		return placeholderModel()
	}

	points := make([]Point3, 0, len(values)/3)
	for i := 0; i < len(values); i += 3 {
		points = append(points, Point3{X: values[i], Y: values[i+1], Z: values[i+2]})
	}
	return &ReferenceModel{points: points}
}

// LoadFile loads a reference model from a file on disk, degrading to
// the placeholder model if the file cannot be read.
func LoadFile(path string) *ReferenceModel {
	f, err := os.Open(path)
	if err != nil {
		log.Warn("reference model file unreadable, using placeholder",
			"path", path, "error", err)
		return placeholderModel()
	}
	defer f.Close()
	return Load(f)
}

func scanFloats(r io.Reader) ([]float64, error) {
	scanner := bufio.NewScanner(r)
	scanner.Split(bufio.ScanWords)

	var values []float64
	for scanner.Scan() {
		v, err := strconv.ParseFloat(scanner.Text(), 64)
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return values, nil
}

func placeholderModel() *ReferenceModel {
	return &ReferenceModel{points: []Point3{{}}}
}

var (
	defaultModelOnce sync.Once
	defaultModel     *ReferenceModel

	yunetModelOnce sync.Once
	yunetModel     *ReferenceModel
)

// DefaultModel returns the embedded six-point face template (nose tip,
// chin, eye corners, mouth corners). Memoized after first load.
func DefaultModel() *ReferenceModel {
	defaultModelOnce.Do(func() {
		defaultModel = loadEmbedded("data/face_model_6.txt")
	})
	return defaultModel
}

// YuNetModel returns the embedded five-point face template matching the
// landmark order emitted by the YuNet detector (right eye, left eye,
// nose tip, right mouth corner, left mouth corner).
func YuNetModel() *ReferenceModel {
	yunetModelOnce.Do(func() {
		yunetModel = loadEmbedded("data/face_model_yunet5.txt")
	})
	return yunetModel
}

func loadEmbedded(name string) *ReferenceModel {
	data, err := embeddedModels.ReadFile(name)
	if err != nil {
		log.Warn("embedded reference model missing, using placeholder",
			"name", name, "error", err)
		return placeholderModel()
	}
	return Load(bytes.NewReader(data))
}
