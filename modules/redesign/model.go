package redesign

import (
	"strings"
	"time"
)

// Category - 디자인 카테고리
type Category string

const (
	CategoryInterior   Category = "interior"
	CategoryExterior   Category = "exterior"
	CategoryLandscape  Category = "landscape"
	CategoryStaging    Category = "staging"
	CategoryRenovation Category = "renovation"
)

// DefaultCategory - 알 수 없는 카테고리의 대체값
const DefaultCategory = CategoryInterior

const (
	DefaultStyle        = "modern"
	DefaultRoomType     = "living room"
	DefaultOriginalName = "uploaded-image"
)

// ParseCategory returns the typed category and whether raw named a known one.
// Unknown values fall back to the default category.
func ParseCategory(raw string) (Category, bool) {
	switch c := Category(strings.ToLower(strings.TrimSpace(raw))); c {
	case CategoryInterior, CategoryExterior, CategoryLandscape, CategoryStaging, CategoryRenovation:
		return c, true
	}
	return DefaultCategory, false
}

// UploadedFile - 업로드된 원본 파일 정보
type UploadedFile struct {
	Path         string
	OriginalName string
	MimeType     string
	Size         int64
}

// RawInput - 멀티파트 폼에서 파싱된 원시 입력 (검증 전)
type RawInput struct {
	Category string
	Style    string
	RoomType string
	Features string // JSON-encoded string array
	File     *UploadedFile
}

// GenerationRequest is the validated, typed request. One per pipeline run,
// immutable once built, never persisted.
type GenerationRequest struct {
	Category    Category
	Style       string
	RoomType    string
	Features    []string
	SourceImage *UploadedFile
}

// GenerationResult - 성공 응답 본문
type GenerationResult struct {
	Status         string    `json:"status"`
	UploadedURL    string    `json:"uploadedUrl"`
	AIGeneratedURL string    `json:"aiGeneratedUrl"`
	Prompt         string    `json:"prompt"`
	OriginalName   string    `json:"originalName"`
	CreatedAt      time.Time `json:"createdAt"`
}

// StatusSuccess - 성공 응답 status 값
const StatusSuccess = "success"
