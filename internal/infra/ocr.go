package infra

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image/jpeg"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
)

// ErrOCRNoDisponible marks the OCR sidecar as unreachable.
var ErrOCRNoDisponible = errors.New("sidecar OCR no disponible")

// OCRClient talks to the OCR sidecar over HTTP. The sidecar receives the
// (already preprocessed) document image and answers with the raw text lines
// it recognized, in reading order.
type OCRClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewOCRClient(baseURL string) *OCRClient {
	return &OCRClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 45 * time.Second},
	}
}

type ocrRequest struct {
	ImagenBase64 string `json:"imagen_base64"`
	MimeType     string `json:"mime_type"`
}

type ocrResponse struct {
	Lineas []string `json:"lineas"`
	Error  string   `json:"error,omitempty"`
}

// ExtraerTexto sends the document to the sidecar and returns the recognized
// text lines.
func (c *OCRClient) ExtraerTexto(ctx context.Context, documento []byte, mimeType string) ([]string, error) {
	payload, err := json.Marshal(ocrRequest{
		ImagenBase64: base64.StdEncoding.EncodeToString(documento),
		MimeType:     mimeType,
	})
	if err != nil {
		return nil, fmt.Errorf("ocr: marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/extract", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("ocr: request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOCRNoDisponible, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrOCRNoDisponible, resp.StatusCode)
	}

	var parsed ocrResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("ocr: decode: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("ocr: %s", parsed.Error)
	}
	return parsed.Lineas, nil
}

// ── Image preprocessing ──────────────────────────────────────────────────────

// anchoMaxOCR caps the image width sent to the sidecar. Phone photos routinely
// come in at 4000px; OCR accuracy plateaus well below that and the payload
// shrinks by an order of magnitude.
const anchoMaxOCR = 2000

// PrepararImagen normalizes a photo before OCR: decode, downscale wide images
// and re-encode as JPEG. Non-image payloads (PDFs) pass through untouched —
// the sidecar handles those natively.
func PrepararImagen(data []byte) ([]byte, string, error) {
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return data, "", nil
	}

	if img.Bounds().Dx() > anchoMaxOCR {
		img = imaging.Resize(img, anchoMaxOCR, 0, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		return nil, "", fmt.Errorf("preparar imagen: encode: %w", err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
