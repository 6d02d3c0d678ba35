package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/studypulse/backend/internal/logger"
	"github.com/studypulse/backend/internal/types"
	"github.com/studypulse/backend/internal/utils"
)

// Client calls the external OCR service that turns an uploaded document into
// text plus candidate concept names. The call can take minutes for scanned
// PDFs, so the timeout budget is generous.
type Client interface {
	Process(ctx context.Context, fileURL string, fileType types.OCRFileType) (*Result, error)
}

type Request struct {
	FileURL  string `json:"fileUrl"`
	FileType string `json:"fileType"`
}

type Result struct {
	RawText     string   `json:"rawText"`
	CleanedText string   `json:"cleanedText"`
	LLMText     string   `json:"llmText"`
	Concepts    []string `json:"concepts"`
}

type client struct {
	httpClient *http.Client
	log        *logger.Logger
	baseURL    string
}

func NewClient(log *logger.Logger) Client {
	serviceLog := log.With("client", "OCRClient")
	baseURL := utils.GetEnv("OCR_SERVICE_URL", "http://127.0.0.1:8001", log)
	timeoutSeconds := utils.GetEnvAsInt("OCR_TIMEOUT_SECONDS", 600, log)
	return &client{
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSeconds) * time.Second,
		},
		log:     serviceLog,
		baseURL: baseURL,
	}
}

func (c *client) Process(ctx context.Context, fileURL string, fileType types.OCRFileType) (*Result, error) {
	payload, err := json.Marshal(Request{FileURL: fileURL, FileType: string(fileType)})
	if err != nil {
		return nil, fmt.Errorf("marshal ocr request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/ocr", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build ocr request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	c.log.Info("Calling OCR service", "file_type", fileType)
	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ocr service call failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("ocr service returned status %d: %s", resp.StatusCode, string(body))
	}

	var result Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode ocr response: %w", err)
	}
	c.log.Info("OCR service responded", "duration", time.Since(started).String(), "concept_count", len(result.Concepts))
	return &result, nil
}
