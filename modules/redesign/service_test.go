package redesign

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdl-server/modules/common/apperr"
	"pdl-server/modules/common/gemini"
	"pdl-server/modules/common/logger"
)

var mockGeneratedResult = gemini.Result{URL: "https://cdn.example.com/generated/hosted.png"}

var mockGenerationErr = apperr.New(apperr.GenerationService,
	"Failed to generate AI image. No valid response from the generation service.")

// 호출 횟수를 기록하는 스테이지 mock들

type mockTransformer struct {
	calls int
	data  []byte
	err   error
}

func (m *mockTransformer) Normalize(path string) ([]byte, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.data, nil
}

type mockStore struct {
	calls     int
	filenames []string
	err       error
	failOn    int // 1-based call index to fail on, 0 = never
}

func (m *mockStore) Upload(_ context.Context, data []byte, filename, contentType string) (string, error) {
	m.calls++
	m.filenames = append(m.filenames, filename)
	if m.err != nil && (m.failOn == 0 || m.calls == m.failOn) {
		return "", m.err
	}
	return fmt.Sprintf("https://cdn.example.com/%s", filename), nil
}

type mockGenerator struct {
	calls  int
	mode   gemini.Mode
	params []gemini.Params
	result *gemini.Result
	err    error
}

func (m *mockGenerator) Generate(_ context.Context, p gemini.Params) (*gemini.Result, error) {
	m.calls++
	m.params = append(m.params, p)
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}

func (m *mockGenerator) Mode() gemini.Mode {
	return m.mode
}

func newTestService(t *testing.T, transformer *mockTransformer, store *mockStore, generator *mockGenerator) *Service {
	t.Helper()
	svc := NewService(testConfig(t), transformer, store, generator, logger.NewTest(t))
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func validInput(t *testing.T) *RawInput {
	t.Helper()
	return &RawInput{
		Category: "interior",
		Style:    "modern",
		RoomType: "living room",
		Features: `["large window","oak flooring"]`,
		File:     writeTempUpload(t, 1024),
	}
}

func TestRun_Success(t *testing.T) {
	transformer := &mockTransformer{data: []byte("png-data")}
	store := &mockStore{}
	generator := &mockGenerator{mode: gemini.ModeEdit, result: &gemini.Result{URL: "https://cdn.example.com/hosted.png"}}
	svc := newTestService(t, transformer, store, generator)

	result, err := svc.Run(context.Background(), validInput(t))
	require.NoError(t, err)

	assert.Equal(t, StatusSuccess, result.Status)
	assert.Equal(t, "https://cdn.example.com/hosted.png", result.AIGeneratedURL)
	assert.Equal(t, "house.png", result.OriginalName)
	assert.Equal(t,
		"Create a modern interior design for a living room. Add suitable furniture, lighting, and decor, with features like large window, oak flooring.",
		result.Prompt)
	assert.False(t, result.CreatedAt.IsZero())

	assert.Equal(t, 1, transformer.calls)
	assert.Equal(t, 1, store.calls, "hosted URL short-circuits the second upload")
	assert.Equal(t, 1, generator.calls)

	// edit 모드에서는 정규화된 이미지가 호출에 포함됨
	require.Len(t, generator.params, 1)
	assert.Equal(t, []byte("png-data"), generator.params[0].Image)
}

func TestRun_ValidationFailureRunsNoStage(t *testing.T) {
	transformer := &mockTransformer{data: []byte("png-data")}
	store := &mockStore{}
	generator := &mockGenerator{mode: gemini.ModeEdit}
	svc := newTestService(t, transformer, store, generator)

	in := validInput(t)
	in.RoomType = ""

	_, err := svc.Run(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, apperr.MissingFields, apperr.KindOf(err))

	assert.Zero(t, transformer.calls)
	assert.Zero(t, store.calls)
	assert.Zero(t, generator.calls)
}

func TestRun_InvalidFileTypeRunsNoTransform(t *testing.T) {
	transformer := &mockTransformer{data: []byte("png-data")}
	store := &mockStore{}
	generator := &mockGenerator{mode: gemini.ModeEdit}
	svc := newTestService(t, transformer, store, generator)

	in := validInput(t)
	in.File.MimeType = "image/gif"

	_, err := svc.Run(context.Background(), in)
	require.Error(t, err)
	assert.Equal(t, apperr.InvalidFileType, apperr.KindOf(err))

	assert.Zero(t, transformer.calls)
	assert.Zero(t, store.calls)
	assert.Zero(t, generator.calls)
}

func TestRun_TransformFailure(t *testing.T) {
	transformer := &mockTransformer{err: errors.New("corrupt image")}
	store := &mockStore{}
	generator := &mockGenerator{mode: gemini.ModeEdit}
	svc := newTestService(t, transformer, store, generator)

	_, err := svc.Run(context.Background(), validInput(t))
	require.Error(t, err)
	assert.Equal(t, apperr.Transform, apperr.KindOf(err))

	assert.Zero(t, store.calls)
	assert.Zero(t, generator.calls)
}

func TestRun_SourceUploadFailureSkipsGeneration(t *testing.T) {
	transformer := &mockTransformer{data: []byte("png-data")}
	store := &mockStore{err: errors.New("network down")}
	generator := &mockGenerator{mode: gemini.ModeEdit}
	svc := newTestService(t, transformer, store, generator)

	_, err := svc.Run(context.Background(), validInput(t))
	require.Error(t, err)
	assert.Equal(t, apperr.StoreUpload, apperr.KindOf(err))

	assert.Zero(t, generator.calls, "generation must not run without a stored source")
}

func TestRun_GenerationFailureIsNotSuccess(t *testing.T) {
	transformer := &mockTransformer{data: []byte("png-data")}
	store := &mockStore{}
	generator := &mockGenerator{
		mode: gemini.ModeEdit,
		err: apperr.New(apperr.GenerationService,
			"Failed to generate AI image. No valid response from the generation service."),
	}
	svc := newTestService(t, transformer, store, generator)

	result, err := svc.Run(context.Background(), validInput(t))
	require.Error(t, err)
	assert.Nil(t, result, "partial success never yields a result")
	assert.Equal(t, apperr.GenerationService, apperr.KindOf(err))
}

func TestRun_GeneratedUploadFailureIsFailure(t *testing.T) {
	transformer := &mockTransformer{data: []byte("png-data")}
	store := &mockStore{err: errors.New("bucket unavailable"), failOn: 2}
	generator := &mockGenerator{mode: gemini.ModeEdit, result: &gemini.Result{Data: []byte("not-a-png"), MIMEType: "image/png"}}
	svc := newTestService(t, transformer, store, generator)

	result, err := svc.Run(context.Background(), validInput(t))
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, apperr.StoreUpload, apperr.KindOf(err))
	assert.Equal(t, 2, store.calls)
}

func TestRun_InlineBytesArePersisted(t *testing.T) {
	transformer := &mockTransformer{data: []byte("png-data")}
	store := &mockStore{}
	// 일부러 PNG가 아닌 바이트: WebP 변환 실패 시 원본 인코딩으로 저장
	generator := &mockGenerator{mode: gemini.ModeEdit, result: &gemini.Result{Data: []byte("raw-bytes"), MIMEType: "image/png"}}
	svc := newTestService(t, transformer, store, generator)

	result, err := svc.Run(context.Background(), validInput(t))
	require.NoError(t, err)

	assert.Equal(t, 2, store.calls)
	assert.Contains(t, result.AIGeneratedURL, "generated_")
	assert.Contains(t, result.UploadedURL, "source_")
}

func TestRun_GenerateModeSendsNoImage(t *testing.T) {
	transformer := &mockTransformer{data: []byte("png-data")}
	store := &mockStore{}
	generator := &mockGenerator{mode: gemini.ModeGenerate, result: &gemini.Result{URL: "https://cdn.example.com/fresh.png"}}
	svc := newTestService(t, transformer, store, generator)

	_, err := svc.Run(context.Background(), validInput(t))
	require.NoError(t, err)

	require.Len(t, generator.params, 1)
	assert.Nil(t, generator.params[0].Image)
	assert.Nil(t, generator.params[0].Mask)
}

func TestRun_EditModeWithMask(t *testing.T) {
	transformer := &mockTransformer{data: []byte("png-data")}
	store := &mockStore{}
	generator := &mockGenerator{mode: gemini.ModeEdit, result: &gemini.Result{URL: "https://cdn.example.com/masked.png"}}

	cfg := testConfig(t)
	cfg.GenerationUseMask = true
	svc := NewService(cfg, transformer, store, generator, logger.NewTest(t))

	_, err := svc.Run(context.Background(), validInput(t))
	require.NoError(t, err)

	require.Len(t, generator.params, 1)
	assert.NotEmpty(t, generator.params[0].Mask)
}

func TestRun_MissingOriginalNameUsesPlaceholder(t *testing.T) {
	transformer := &mockTransformer{data: []byte("png-data")}
	store := &mockStore{}
	generator := &mockGenerator{mode: gemini.ModeEdit, result: &gemini.Result{URL: "https://cdn.example.com/x.png"}}
	svc := newTestService(t, transformer, store, generator)

	in := validInput(t)
	in.File.OriginalName = ""

	result, err := svc.Run(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, DefaultOriginalName, result.OriginalName)
}
