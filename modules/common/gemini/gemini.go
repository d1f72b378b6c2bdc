// Package gemini wraps the generative image service. Two call shapes exist:
// edit mode sends the prompt with the normalized image (and an optional mask
// marking editable regions), generate mode sends the prompt alone. The mode
// is fixed by configuration at construction.
package gemini

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"pdl-server/modules/common/apperr"
	"pdl-server/modules/common/config"
)

// Mode - 생성 호출 방식
type Mode string

const (
	ModeEdit     Mode = config.ModeEdit
	ModeGenerate Mode = config.ModeGenerate
)

// Params - 한 번의 생성 호출 입력
type Params struct {
	Prompt string
	Image  []byte // normalized PNG, edit 모드에서만 사용
	Mask   []byte // optional PNG mask
}

// Result is the first usable descriptor from the service response: either
// inline image bytes or a hosted URL, never both empty.
type Result struct {
	Data     []byte
	MIMEType string
	URL      string
}

type Client struct {
	genai   *genai.Client
	model   string
	mode    Mode
	timeout time.Duration
	log     *zap.Logger
}

// NewClient - Genai 클라이언트 초기화
func NewClient(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Genai client: %w", err)
	}

	return &Client{
		genai:   genaiClient,
		model:   cfg.GeminiModel,
		mode:    Mode(cfg.GenerationMode),
		timeout: cfg.GenerationTimeout,
		log:     log,
	}, nil
}

// Mode - 설정된 호출 방식
func (c *Client) Mode() Mode {
	return c.mode
}

// Generate runs one generation call. Remote errors, timeouts and success
// responses without any usable image are all surfaced as generation-service
// failures.
func (c *Client) Generate(ctx context.Context, p Params) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	content := buildContent(c.mode, p)

	c.log.Info("🎨 Calling Gemini API",
		zap.String("model", c.model),
		zap.String("mode", string(c.mode)),
		zap.Int("promptLength", len(p.Prompt)))

	resp, err := c.genai.Models.GenerateContent(
		ctx,
		c.model,
		[]*genai.Content{content},
		&genai.GenerateContentConfig{
			ImageConfig: &genai.ImageConfig{
				AspectRatio: "1:1",
			},
		},
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.GenerationService, "Failed to generate AI image.", err)
	}

	result, err := firstImage(resp)
	if err != nil {
		return nil, err
	}

	c.log.Info("✅ Received image from Gemini", zap.Int("bytes", len(result.Data)))
	return result, nil
}

// buildContent - 모드에 따라 요청 파트 구성
func buildContent(mode Mode, p Params) *genai.Content {
	parts := []*genai.Part{genai.NewPartFromText(p.Prompt)}

	if mode == ModeEdit && len(p.Image) > 0 {
		parts = append(parts, genai.NewPartFromBytes(p.Image, "image/png"))
		if len(p.Mask) > 0 {
			parts = append(parts, genai.NewPartFromBytes(p.Mask, "image/png"))
		}
	}

	return &genai.Content{Parts: parts}
}

// firstImage scans candidates for the first part carrying image data. A
// response with no usable image is a failure, never forwarded as success.
func firstImage(resp *genai.GenerateContentResponse) (*Result, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, apperr.New(apperr.GenerationService,
			"Failed to generate AI image. No valid response from the generation service.")
	}

	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part.InlineData != nil && len(part.InlineData.Data) > 0 {
				return &Result{
					Data:     part.InlineData.Data,
					MIMEType: part.InlineData.MIMEType,
				}, nil
			}
			if part.FileData != nil && part.FileData.FileURI != "" {
				return &Result{
					URL:      part.FileData.FileURI,
					MIMEType: part.FileData.MIMEType,
				}, nil
			}
		}
	}

	return nil, apperr.New(apperr.GenerationService,
		"Failed to generate AI image. No valid response from the generation service.")
}
