// Package detector talks to the face embedding server that locates faces in
// a photo and returns one embedding per face.
package detector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/atinyakov/rollcall/internal/formdata"
)

const (
	defaultBaseURL = "http://localhost:8000"
	facePath       = "/embed/face"
)

// Face is one detected face.
type Face struct {
	Index     int       `json:"face_index"`
	Embedding []float32 `json:"embedding"`
	// BBox is [x1, y1, x2, y2] in image pixels.
	BBox     []float64 `json:"bbox"`
	DetScore float64   `json:"det_score"`
}

type faceResponse struct {
	FacesCount int    `json:"faces_count"`
	Faces      []Face `json:"faces"`
}

// Client computes face embeddings using the embedding server.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a Client for baseURL. A nil httpClient gets a 60s timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  httpClient,
	}
}

// DetectFaces posts a JPEG image and returns every face with a non-empty
// embedding, in detector order.
func (c *Client) DetectFaces(ctx context.Context, jpeg []byte) ([]Face, error) {
	body, contentType, err := formdata.Encode([]formdata.File{{
		Field:       "file",
		Filename:    "image.jpg",
		ContentType: "image/jpeg",
		Data:        jpeg,
	}}, nil)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+facePath, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var faceResp faceResponse
	if err := json.Unmarshal(respBody, &faceResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	faces := make([]Face, 0, len(faceResp.Faces))
	for _, f := range faceResp.Faces {
		if len(f.Embedding) == 0 {
			continue
		}
		faces = append(faces, f)
	}
	return faces, nil
}
