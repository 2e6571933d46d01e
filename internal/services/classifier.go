package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// UpstreamError carries the status and message returned by an upstream API.
type UpstreamError struct {
	Status int
	Detail string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream returned %d: %s", e.Status, e.Detail)
}

// Prediction is the classifier's response for one image.
type Prediction struct {
	Prediction         string             `json:"prediction"`
	Confidence         float64            `json:"confidence"`
	ClassProbabilities map[string]float64 `json:"class_probabilities"`
	HeatmapImage       string             `json:"heatmap_image,omitempty"`
}

// ClassifierClient forwards skin lesion images to the inference API.
type ClassifierClient struct {
	baseURL string
	client  *http.Client
}

// NewClassifierClient creates a client for the inference API at baseURL.
func NewClassifierClient(baseURL string) *ClassifierClient {
	return &ClassifierClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// Predict uploads the image as the multipart field "file". A non-empty
// token is forwarded as a bearer credential.
func (c *ClassifierClient) Predict(ctx context.Context, fileName string, image io.Reader, token string) (*Prediction, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("classifier form build: %w", err)
	}
	if _, err := io.Copy(part, image); err != nil {
		return nil, fmt.Errorf("classifier form copy: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("classifier form close: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", &body)
	if err != nil {
		return nil, fmt.Errorf("classifier request build: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("classifier request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("classifier read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &UpstreamError{Status: resp.StatusCode, Detail: upstreamDetail(payload, "Failed to process image")}
	}

	var prediction Prediction
	if err := json.Unmarshal(payload, &prediction); err != nil {
		return nil, fmt.Errorf("classifier unmarshal: %w", err)
	}

	return &prediction, nil
}

func upstreamDetail(payload []byte, fallback string) string {
	var body struct {
		Detail any    `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(payload, &body); err != nil {
		return fallback
	}

	switch detail := body.Detail.(type) {
	case string:
		if detail != "" {
			return detail
		}
	case nil:
	default:
		if encoded, err := json.Marshal(detail); err == nil {
			return string(encoded)
		}
	}

	if body.Error != "" {
		return body.Error
	}
	return fallback
}
