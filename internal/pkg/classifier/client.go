package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2/log"

	"github.com/CivicLens/BillboardGuard/app/models"
	"github.com/CivicLens/BillboardGuard/internal/pkg/analysis"
)

// ErrUnavailable marks a failed classifier call: transport error, timeout,
// non-2xx response or an empty answer. It is distinct from a successful but
// unparseable answer, which degrades instead of failing.
var ErrUnavailable = errors.New("classifier unavailable")

// rawExcerptLimit bounds the answer excerpt embedded in a degraded finding.
const rawExcerptLimit = 200

const systemPrompt = `You are an AI system that analyzes billboard images for violations in Indian cities.
Analyze the image and identify violations in these categories:
1. SIZE: Check if billboard exceeds standard dimensions (12x20 ft, 8x15 ft)
2. LOCATION: Check if placed inappropriately (near intersections, blocking signs)
3. STRUCTURAL: Look for structural damage, poor installation, safety hazards
4. CONTENT: Check for obscene, misleading, or inappropriate content

Provide response as JSON with violations array containing: type, severity (low/medium/high/critical), description, confidence (0-100).`

// Location describes where the billboard photo was taken.
type Location struct {
	Lat     float64
	Lng     float64
	Address string
}

// Result is the normalized outcome of one classifier call. Degraded marks
// the fallback path where the answer could not be parsed as structured data
// and a single flag finding was synthesized instead.
type Result struct {
	Findings []analysis.Finding
	Degraded bool
}

// Client calls the external vision inference endpoint and normalizes its
// answer into the internal violation schema.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a classifier client from the given configuration.
func NewClient(config *Config) *Client {
	return &Client{
		config: config,
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
	}
}

type chatMessage struct {
	Role    string      `json:"role"`
	Content interface{} `json:"content"`
}

type contentPart struct {
	Type     string        `json:"type"`
	Text     string        `json:"text,omitempty"`
	ImageURL *contentImage `json:"image_url,omitempty"`
}

type contentImage struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type classifierAnswer struct {
	Violations []struct {
		Type        string   `json:"type"`
		Severity    string   `json:"severity"`
		Description string   `json:"description"`
		Confidence  *float64 `json:"confidence"`
	} `json:"violations"`
}

// Analyze submits the billboard image to the classifier and returns the
// normalized findings. The call is bounded by the configured timeout; the
// adapter never retries, retry policy belongs to the caller.
func (c *Client) Analyze(ctx context.Context, imageURL string, loc Location) (*Result, error) {
	if imageURL == "" {
		return nil, fmt.Errorf("%w: empty image url", ErrUnavailable)
	}

	address := loc.Address
	if address == "" {
		address = "Unknown"
	}

	reqBody := chatRequest{
		Model: c.config.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: []contentPart{
				{Type: "text", Text: fmt.Sprintf("Analyze this billboard image for violations. Location: %s", address)},
				{Type: "image_url", ImageURL: &contentImage{URL: imageURL}},
			}},
		},
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal classifier request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build classifier request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	data, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: non-2xx response %s", ErrUnavailable, resp.Status)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty response body", ErrUnavailable)
	}

	var chat chatResponse
	if err := json.Unmarshal(data, &chat); err != nil {
		return nil, fmt.Errorf("%w: decode response envelope: %v", ErrUnavailable, err)
	}
	if len(chat.Choices) == 0 || chat.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: answer contains no content", ErrUnavailable)
	}

	return normalizeAnswer(chat.Choices[0].Message.Content), nil
}

// normalizeAnswer turns the model's answer text into findings. An answer
// that is not valid structured data must not be swallowed as "compliant":
// it becomes a single low-certainty structural flag carrying an excerpt of
// the raw answer so a human reviewer sees it. A literal JSON null parses
// cleanly but carries no violations array either, so it degrades the same
// way.
func normalizeAnswer(content string) *Result {
	var answer *classifierAnswer
	if err := json.Unmarshal([]byte(stripCodeFences(content)), &answer); err != nil || answer == nil {
		log.Warnf("[Classifier] Unparseable answer, degrading to single flag: %v", err)
		return &Result{
			Findings: []analysis.Finding{{
				Type:        models.ViolationTypeStructural,
				Severity:    models.SeverityMedium,
				Description: truncateRunes(content, rawExcerptLimit),
				Confidence:  models.DefaultConfidence,
			}},
			Degraded: true,
		}
	}

	findings := make([]analysis.Finding, 0, len(answer.Violations))
	for _, v := range answer.Violations {
		finding := analysis.Finding{
			Type:        strings.ToLower(strings.TrimSpace(v.Type)),
			Severity:    strings.ToLower(strings.TrimSpace(v.Severity)),
			Description: v.Description,
		}
		if !models.IsValidViolationType(finding.Type) {
			finding.Type = models.ViolationTypeStructural
		}
		if !models.IsValidSeverity(finding.Severity) {
			finding.Severity = models.SeverityMedium
		}
		if v.Confidence != nil {
			finding.Confidence = int(math.Round(*v.Confidence))
		}
		findings = append(findings, finding)
	}

	return &Result{Findings: findings}
}

// stripCodeFences unwraps answers the model wrapped in a markdown code
// block, a common failure shape that is otherwise valid JSON.
func stripCodeFences(s string) string {
	trimmed := strings.TrimSpace(s)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
