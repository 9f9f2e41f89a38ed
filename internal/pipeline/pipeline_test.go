package pipeline

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/vehicle-detect/internal/classifier"
	"github.com/ironsheep/vehicle-detect/internal/config"
	"github.com/ironsheep/vehicle-detect/internal/detection"
	"github.com/ironsheep/vehicle-detect/internal/imaging"
)

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir: %v", err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("failed to create %s: %v", path, err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode %s: %v", path, err)
	}
}

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// createColorDataset writes five red "vehicles" and five blue "non-vehicles"
// samples with slightly different shades.
func createColorDataset(t *testing.T) string {
	t.Helper()
	root := filepath.Join(t.TempDir(), "dataset")
	for i := 0; i < 5; i++ {
		shade := uint8(230 + i*5)
		writePNG(t, filepath.Join(root, "vehicles", fmt.Sprintf("car_%d.png", i)),
			solid(32, 32, color.RGBA{shade, 10, 10, 255}))
		writePNG(t, filepath.Join(root, "non-vehicles", fmt.Sprintf("road_%d.png", i)),
			solid(32, 32, color.RGBA{10, 10, shade, 255}))
	}
	return root
}

// createScene writes a 96x96 blue image with one red 32x32 block at (32, 32).
func createScene(t *testing.T) string {
	t.Helper()
	img := solid(96, 96, color.RGBA{10, 10, 240, 255})
	for y := 32; y < 64; y++ {
		for x := 32; x < 64; x++ {
			img.Set(x, y, color.RGBA{240, 10, 10, 255})
		}
	}
	path := filepath.Join(t.TempDir(), "street.png")
	writePNG(t, path, img)
	return path
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DatasetDir = createColorDataset(t)
	cfg.ImagePath = createScene(t)
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.png")
	cfg.TargetLabel = "vehicles"
	cfg.Extractor = "histogram"
	cfg.WindowSize = config.WindowSize{Width: 32, Height: 32}
	cfg.StepSize = 32
	cfg.Workers = 2
	return cfg
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)

	report, err := Run(cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if report.Samples != 10 || report.Train != 8 || report.Test != 2 {
		t.Errorf("split: samples=%d train=%d test=%d, want 10/8/2", report.Samples, report.Train, report.Test)
	}
	if report.Labels["vehicles"] != 5 || report.Labels["non-vehicles"] != 5 {
		t.Errorf("labels: got %v", report.Labels)
	}
	if report.Metrics.Accuracy != 1 {
		t.Errorf("held-out accuracy: got %v, want 1", report.Metrics.Accuracy)
	}
	if report.Windows != 9 {
		t.Errorf("windows: got %d, want 9", report.Windows)
	}
	if report.Count != 1 {
		t.Fatalf("count: got %d, want 1 (boxes %v)", report.Count, report.Boxes)
	}
	want := detection.Window{X: 32, Y: 32, Width: 32, Height: 32}
	if report.Boxes[0] != want {
		t.Errorf("box: got %+v, want %+v", report.Boxes[0], want)
	}

	if report.OutputPath != cfg.OutputPath {
		t.Errorf("OutputPath: got %q, want %q", report.OutputPath, cfg.OutputPath)
	}
	out, err := imaging.Open(cfg.OutputPath)
	if err != nil {
		t.Fatalf("output not readable: %v", err)
	}
	if out.Bounds().Dx() != 96 || out.Bounds().Dy() != 96 {
		t.Errorf("output size: got %v, want 96x96", out.Bounds())
	}
	r, g, b, _ := out.At(32, 32).RGBA()
	if r>>8 != 0 || g>>8 != 255 || b>>8 != 0 {
		t.Errorf("box border at (32,32): got (%d,%d,%d), want green", r>>8, g>>8, b>>8)
	}
}

func TestRun_MissingImage(t *testing.T) {
	cfg := testConfig(t)
	cfg.ImagePath = filepath.Join(t.TempDir(), "nowhere.jpg")

	report, err := Run(cfg)
	if err != nil {
		t.Fatalf("missing image should not fail the run: %v", err)
	}
	if report.Count != 0 || report.OutputPath != "" {
		t.Errorf("got count=%d output=%q, want 0 and no output", report.Count, report.OutputPath)
	}
	if imaging.Exists(cfg.OutputPath) {
		t.Error("no output should be written for a missing image")
	}
}

func TestRun_UndecodableImage(t *testing.T) {
	cfg := testConfig(t)
	cfg.ImagePath = filepath.Join(t.TempDir(), "broken.png")
	os.WriteFile(cfg.ImagePath, []byte("not a png"), 0644)

	report, err := Run(cfg)
	if err != nil {
		t.Fatalf("undecodable image should not fail the run: %v", err)
	}
	if report.Count != 0 {
		t.Errorf("count: got %d, want 0", report.Count)
	}
}

func TestRun_EmptyDataset(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatasetDir = t.TempDir()

	if _, err := Run(cfg); !errors.Is(err, classifier.ErrInsufficientData) {
		t.Errorf("got %v, want ErrInsufficientData", err)
	}
}

func TestRun_MissingDataset(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatasetDir = filepath.Join(t.TempDir(), "absent")

	if _, err := Run(cfg); !errors.Is(err, classifier.ErrInsufficientData) {
		t.Errorf("got %v, want ErrInsufficientData", err)
	}
}

func TestRun_UnknownTarget(t *testing.T) {
	cfg := testConfig(t)
	cfg.TargetLabel = "trucks"

	_, err := Run(cfg)
	if !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("got %v, want ErrUnknownTarget", err)
	}
}

func TestRun_UnsupportedOutput(t *testing.T) {
	cfg := testConfig(t)
	cfg.OutputPath = filepath.Join(t.TempDir(), "out.webp")

	if _, err := Run(cfg); err == nil {
		t.Error("Run should fail for an unsupported output format")
	}
}

func TestDetectionOptions(t *testing.T) {
	cfg := testConfig(t)
	cfg.BoxThickness = 3

	opts, err := DetectionOptions(cfg)
	if err != nil {
		t.Fatalf("DetectionOptions failed: %v", err)
	}
	if opts.WindowWidth != 32 || opts.WindowHeight != 32 || opts.Step != 32 || opts.Thickness != 3 || opts.TargetLabel != "vehicles" {
		t.Errorf("options not mapped: %+v", opts)
	}
	if opts.BoxColor != (color.RGBA{0, 255, 0, 255}) {
		t.Errorf("BoxColor: got %v, want green", opts.BoxColor)
	}

	cfg.BoxColor = "not-a-color"
	if _, err := DetectionOptions(cfg); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("bad color: got %v, want ErrInvalid", err)
	}
}

func TestNewExtractor_Unknown(t *testing.T) {
	cfg := testConfig(t)
	cfg.Extractor = "vgg16"

	if _, err := NewExtractor(cfg); !errors.Is(err, config.ErrInvalid) {
		t.Errorf("got %v, want ErrInvalid", err)
	}
}

func TestModel_DetectFile(t *testing.T) {
	cfg := testConfig(t)
	ext, err := NewExtractor(cfg)
	if err != nil {
		t.Fatalf("NewExtractor failed: %v", err)
	}
	model, err := Prepare(cfg, ext)
	if err != nil {
		t.Fatalf("Prepare failed: %v", err)
	}
	opts, _ := DetectionOptions(cfg)
	cache := imaging.NewImageCache()

	// Same model, several scans
	for i := 0; i < 2; i++ {
		result, err := model.DetectFile(cache, cfg.ImagePath, opts)
		if err != nil {
			t.Fatalf("DetectFile failed: %v", err)
		}
		if result.Count != 1 {
			t.Errorf("scan %d: got %d detections, want 1", i, result.Count)
		}
	}

	if _, err := model.DetectFile(cache, filepath.Join(t.TempDir(), "x.png"), opts); !errors.Is(err, imaging.ErrMissingPath) {
		t.Errorf("got %v, want ErrMissingPath", err)
	}
}
