package redesign

import (
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"pdl-server/modules/common/apperr"
	"pdl-server/modules/common/config"
	"pdl-server/modules/common/metrics"
	"pdl-server/modules/common/ratelimit"
)

// multipart 파싱 메모리 한도
const maxParseMemory = 32 << 20

// Handler is the HTTP boundary of the pipeline. It owns the temp-file
// lifecycle: the uploaded blob lands in the configured tmp dir and is removed
// on every exit path, success or failure.
type Handler struct {
	cfg     *config.Config
	limiter ratelimit.Limiter
	service *Service
	metrics *metrics.Metrics
	log     *zap.Logger
}

func NewHandler(cfg *config.Config, limiter ratelimit.Limiter, service *Service, m *metrics.Metrics, log *zap.Logger) *Handler {
	return &Handler{
		cfg:     cfg,
		limiter: limiter,
		service: service,
		metrics: m,
		log:     log,
	}
}

// Generate - POST /api/images/generate
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	// 예상 못한 panic도 단일 에러 응답으로 변환
	defer func() {
		if rec := recover(); rec != nil {
			h.log.Error("❌ Panic while processing request", zap.Any("panic", rec))
			h.writeError(w, apperr.New(apperr.Unexpected, "Image generation failed"))
		}
	}()

	if r.Method != http.MethodPost {
		h.writeError(w, apperr.New(apperr.MethodNotAllowed, "Method not allowed"))
		return
	}

	identity := clientIP(r)
	allowed, err := h.limiter.Allow(r.Context(), identity)
	if err != nil {
		h.log.Error("❌ Rate limiter error", zap.Error(err))
		h.writeError(w, apperr.Wrap(apperr.Unexpected, "Rate limiting failed.", err))
		return
	}
	if !allowed {
		h.log.Warn("⚠️  Rate limit triggered. Request was blocked.", zap.String("identity", identity))
		h.writeError(w, apperr.New(apperr.RateLimited, "Too many requests. Please try again later."))
		return
	}

	in, cleanup, err := h.parseForm(r)
	defer cleanup()
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.log.Info("📥 Generation request received",
		zap.String("category", in.Category),
		zap.String("style", in.Style),
		zap.String("roomType", in.RoomType))

	result, err := h.service.Run(r.Context(), in)
	if err != nil {
		h.writeError(w, err)
		return
	}

	h.metrics.RequestsTotal.WithLabelValues("success").Inc()
	h.metrics.PipelineDuration.Observe(time.Since(start).Seconds())

	h.log.Info("✅ Generation request completed",
		zap.String("uploadedUrl", result.UploadedURL),
		zap.String("aiGeneratedUrl", result.AIGeneratedURL),
		zap.Duration("elapsed", time.Since(start)))

	writeJSON(w, http.StatusOK, result)
}

// parseForm parses the multipart body and spools the uploaded file into the
// tmp dir. The returned cleanup is always safe to call and idempotent.
func (h *Handler) parseForm(r *http.Request) (*RawInput, func(), error) {
	cleanup := func() {}

	if err := r.ParseMultipartForm(maxParseMemory); err != nil {
		return nil, cleanup, apperr.Wrap(apperr.Parse, "Malformed multipart body.", err)
	}
	cleanup = func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	in := &RawInput{
		Category: r.FormValue("category"),
		Style:    r.FormValue("style"),
		RoomType: r.FormValue("roomType"),
		Features: r.FormValue("features"),
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		// 파일 없음은 검증 단계에서 NoFile로 처리
		return in, cleanup, nil
	}
	defer file.Close()

	ext := filepath.Ext(header.Filename)
	tmp, err := os.CreateTemp(h.cfg.TmpDir, "upload-*"+ext)
	if err != nil {
		return nil, cleanup, apperr.Wrap(apperr.Unexpected, "Image generation failed", err)
	}

	tmpPath := tmp.Name()
	formCleanup := cleanup
	cleanup = func() {
		formCleanup()
		removeTemp(h.log, tmpPath)
	}

	if _, err := io.Copy(tmp, file); err != nil {
		tmp.Close()
		return nil, cleanup, apperr.Wrap(apperr.Unexpected, "Image generation failed", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, cleanup, apperr.Wrap(apperr.Unexpected, "Image generation failed", err)
	}

	in.File = &UploadedFile{
		Path:         tmpPath,
		OriginalName: header.Filename,
		MimeType:     header.Header.Get("Content-Type"),
		Size:         header.Size,
	}
	return in, cleanup, nil
}

// removeTemp - 임시 파일 삭제 (이미 없으면 무시)
func removeTemp(log *zap.Logger, path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warn("⚠️  Failed to remove temp file", zap.String("path", path), zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	message := apperr.MessageOf(err)

	if status >= http.StatusInternalServerError {
		h.log.Error("❌ Error processing image", zap.String("kind", kind.String()), zap.Error(err))
	} else {
		h.log.Warn("Request rejected", zap.String("kind", kind.String()), zap.String("message", message))
	}

	h.metrics.RequestsTotal.WithLabelValues(kind.String()).Inc()
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// clientIP - rate limit 식별자 (프록시 뒤에서는 X-Forwarded-For 첫 항목)
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if idx := strings.IndexByte(fwd, ','); idx >= 0 {
			return strings.TrimSpace(fwd[:idx])
		}
		return strings.TrimSpace(fwd)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
