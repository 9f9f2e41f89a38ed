package features

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/ironsheep/vehicle-detect/internal/imaging"
)

// Remote delegates embedding to an out-of-process service, typically a
// pretrained CNN served over HTTP.
//
// Each patch is resized to InputSize x InputSize, encoded as PNG and posted as
// the multipart form field "file". The service answers with
//
//	{"embedding": [0.12, 0.5, ...]}
//
// A response whose length differs from Dim is rejected.
type Remote struct {
	URL       string
	InputSize int
	dim       int
	client    *http.Client
}

// NewRemote returns a Remote extractor posting to url.
// Zero inputSize and timeout take the package defaults.
func NewRemote(url string, dim, inputSize int, timeout time.Duration) (*Remote, error) {
	if url == "" {
		return nil, fmt.Errorf("remote: embedding URL is required")
	}
	if dim <= 0 {
		return nil, fmt.Errorf("remote: embedding dimension must be positive")
	}
	if inputSize == 0 {
		inputSize = DefaultRemoteSize
	}
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	return &Remote{
		URL:       url,
		InputSize: inputSize,
		dim:       dim,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Name implements Extractor.
func (r *Remote) Name() string { return "remote" }

// Dim implements Extractor.
func (r *Remote) Dim() int { return r.dim }

// Extract implements Extractor.
func (r *Remote) Extract(img image.Image) (FeatureVector, error) {
	if emptyImage(img) {
		return nil, fmt.Errorf("%w: empty image", ErrExtraction)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("file", "patch.png")
	if err != nil {
		return nil, fmt.Errorf("%w: create form file: %v", ErrExtraction, err)
	}
	if err := png.Encode(part, imaging.Fit(img, r.InputSize, r.InputSize)); err != nil {
		return nil, fmt.Errorf("%w: encode patch: %v", ErrExtraction, err)
	}
	writer.Close()

	req, err := http.NewRequest(http.MethodPost, r.URL, body)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrExtraction, err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: send request: %v", ErrExtraction, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: embedding service returned status %d", ErrExtraction, resp.StatusCode)
	}

	var result struct {
		Embedding []float64 `json:"embedding"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrExtraction, err)
	}
	if len(result.Embedding) != r.dim {
		return nil, fmt.Errorf("%w: embedding has %d values, want %d", ErrExtraction, len(result.Embedding), r.dim)
	}

	return FeatureVector(result.Embedding), nil
}

// CheckHealth probes <URL>/health and reports an unreachable or unhealthy service.
func (r *Remote) CheckHealth() error {
	resp, err := r.client.Get(strings.TrimSuffix(r.URL, "/") + "/health")
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("embedding service unhealthy: %d", resp.StatusCode)
	}
	return nil
}
