package redesign

import (
	"encoding/json"
	"fmt"
	"os"

	"go.uber.org/zap"

	"pdl-server/modules/common/apperr"
	"pdl-server/modules/common/config"
)

// 검증 실패 메시지
const (
	msgMissingFields   = "Missing required fields. Ensure 'style', 'category', and 'roomType' are provided."
	msgInvalidFileType = "Unsupported image type. Only PNG and JPEG are accepted."
	msgNoFile          = "No valid image file uploaded."
)

// Validator checks raw multipart input before any expensive work happens.
// Any single failure short-circuits the remaining checks and the pipeline.
type Validator struct {
	cfg *config.Config
	log *zap.Logger
}

func NewValidator(cfg *config.Config, log *zap.Logger) *Validator {
	return &Validator{cfg: cfg, log: log}
}

// Validate - 원시 입력을 검증하고 타입이 확정된 요청으로 변환
func (v *Validator) Validate(in *RawInput) (*GenerationRequest, error) {
	if in.Category == "" || in.Style == "" || in.RoomType == "" {
		return nil, apperr.New(apperr.MissingFields, msgMissingFields)
	}

	if in.File == nil || in.File.Path == "" {
		return nil, apperr.New(apperr.NoFile, msgNoFile)
	}

	info, err := os.Stat(in.File.Path)
	if err != nil {
		return nil, apperr.Wrap(apperr.NoFile, msgNoFile, err)
	}

	if !v.cfg.MimeAllowed(in.File.MimeType) {
		return nil, apperr.New(apperr.InvalidFileType, msgInvalidFileType)
	}

	size := in.File.Size
	if size == 0 {
		size = info.Size()
	}
	if size > v.cfg.MaxFileSizeBytes() {
		return nil, apperr.New(apperr.FileTooLarge,
			fmt.Sprintf("File too large. Maximum size is %dMB.", v.cfg.MaxFileSizeMB))
	}

	category, known := ParseCategory(in.Category)
	if !known {
		v.log.Warn("⚠️  Unknown category, using default",
			zap.String("category", in.Category),
			zap.String("default", string(DefaultCategory)))
	}

	return &GenerationRequest{
		Category:    category,
		Style:       in.Style,
		RoomType:    in.RoomType,
		Features:    v.parseFeatures(in.Features),
		SourceImage: in.File,
	}, nil
}

// parseFeatures - features JSON 배열 파싱. 실패해도 요청은 거부하지 않음.
func (v *Validator) parseFeatures(raw string) []string {
	if raw == "" {
		return []string{}
	}

	var features []string
	if err := json.Unmarshal([]byte(raw), &features); err != nil {
		v.log.Warn("⚠️  Invalid features format. Defaulting to empty list.", zap.Error(err))
		return []string{}
	}
	return features
}
