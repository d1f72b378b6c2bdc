package redesign

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"pdl-server/modules/common/apperr"
	"pdl-server/modules/common/config"
	"pdl-server/modules/common/gemini"
	"pdl-server/modules/common/imaging"
)

// Transformer normalizes an uploaded file into the fixed-size PNG buffer.
type Transformer interface {
	Normalize(path string) ([]byte, error)
}

// Store persists a buffer durably and returns a public URL.
type Store interface {
	Upload(ctx context.Context, data []byte, filename, contentType string) (string, error)
}

// Generator produces an image from a prompt and, in edit mode, a source image.
type Generator interface {
	Generate(ctx context.Context, p gemini.Params) (*gemini.Result, error)
	Mode() gemini.Mode
}

// Service runs the pipeline stages strictly in sequence: validate, transform,
// store the source, build the prompt, call the generation service, store the
// result, assemble the response. Every failure is tagged and returned as-is;
// no stage retries. A result is assembled only after both uploads and the
// generation call succeeded.
type Service struct {
	cfg         *config.Config
	validator   *Validator
	transformer Transformer
	store       Store
	generator   Generator
	log         *zap.Logger
	now         func() time.Time
}

func NewService(cfg *config.Config, transformer Transformer, store Store, generator Generator, log *zap.Logger) *Service {
	return &Service{
		cfg:         cfg,
		validator:   NewValidator(cfg, log),
		transformer: transformer,
		store:       store,
		generator:   generator,
		log:         log,
		now:         time.Now,
	}
}

// Run - 검증된 한 건의 요청을 끝까지 처리
func (s *Service) Run(ctx context.Context, in *RawInput) (*GenerationResult, error) {
	req, err := s.validator.Validate(in)
	if err != nil {
		return nil, err
	}

	normalized, err := s.transformer.Normalize(req.SourceImage.Path)
	if err != nil {
		return nil, tag(err, apperr.Transform, "Failed to process the uploaded image.")
	}
	s.log.Info("🖼️  Image normalized", zap.Int("bytes", len(normalized)))

	uploadedURL, err := s.store.Upload(ctx, normalized,
		fmt.Sprintf("source_%s.png", uuid.NewString()), "image/png")
	if err != nil {
		return nil, tag(err, apperr.StoreUpload, "Failed to store image.")
	}

	prompt := BuildPrompt(req.Category, req.Style, req.RoomType, req.Features)
	s.log.Info("🧠 Prompt built", zap.String("prompt", prompt))

	params := gemini.Params{Prompt: prompt}
	if s.generator.Mode() == gemini.ModeEdit {
		params.Image = normalized
		if s.cfg.GenerationUseMask {
			mask, err := imaging.WhiteMask(imaging.NormalizedSize, imaging.NormalizedSize)
			if err != nil {
				return nil, tag(err, apperr.Transform, "Failed to process the uploaded image.")
			}
			params.Mask = mask
		}
	}

	generated, err := s.generator.Generate(ctx, params)
	if err != nil {
		return nil, tag(err, apperr.GenerationService, "Failed to generate AI image.")
	}

	generatedURL, err := s.persistGenerated(ctx, generated)
	if err != nil {
		return nil, err
	}

	originalName := req.SourceImage.OriginalName
	if originalName == "" {
		originalName = DefaultOriginalName
	}

	return &GenerationResult{
		Status:         StatusSuccess,
		UploadedURL:    uploadedURL,
		AIGeneratedURL: generatedURL,
		Prompt:         prompt,
		OriginalName:   originalName,
		CreatedAt:      s.now().UTC(),
	}, nil
}

// persistGenerated makes the generated image durable. A hosted URL from the
// service is used directly; inline bytes are stored as WebP, falling back to
// the original encoding when conversion is not possible.
func (s *Service) persistGenerated(ctx context.Context, generated *gemini.Result) (string, error) {
	if generated.URL != "" {
		return generated.URL, nil
	}

	data := generated.Data
	filename := fmt.Sprintf("generated_%s.webp", uuid.NewString())
	contentType := "image/webp"

	webpData, err := imaging.PNGToWebP(generated.Data, imaging.WebPQuality)
	if err != nil {
		s.log.Warn("⚠️  WebP conversion failed, storing original encoding", zap.Error(err))
		data = generated.Data
		contentType = generated.MIMEType
		if contentType == "" {
			contentType = "image/png"
		}
		filename = fmt.Sprintf("generated_%s.png", uuid.NewString())
	} else {
		data = webpData
	}

	url, err := s.store.Upload(ctx, data, filename, contentType)
	if err != nil {
		return "", tag(err, apperr.StoreUpload, "Failed to store image.")
	}
	return url, nil
}

// tag - 이미 분류된 에러는 유지하고, 아니면 kind를 붙임
func tag(err error, kind apperr.Kind, message string) error {
	if apperr.KindOf(err) != apperr.Unexpected {
		return err
	}
	return apperr.Wrap(kind, message, err)
}

// ImagingTransformer - imaging 패키지 기반 기본 Transformer
type ImagingTransformer struct{}

func NewImagingTransformer() *ImagingTransformer {
	return &ImagingTransformer{}
}

func (t *ImagingTransformer) Normalize(path string) ([]byte, error) {
	return imaging.NormalizeFile(path)
}
