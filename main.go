package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"pdl-server/modules/common/config"
	"pdl-server/modules/common/gemini"
	"pdl-server/modules/common/logger"
	"pdl-server/modules/common/metrics"
	"pdl-server/modules/common/ratelimit"
	redisconn "pdl-server/modules/common/redis"
	"pdl-server/modules/common/storage"
	"pdl-server/modules/redesign"
)

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	zlog := logger.New(cfg.LogLevel, cfg.LogFormat)
	defer zlog.Sync()

	zlog.Info("✅ Configuration loaded",
		zap.String("port", cfg.Port),
		zap.String("tmpDir", cfg.TmpDir),
		zap.Int("maxFileSizeMB", cfg.MaxFileSizeMB),
		zap.String("generationMode", cfg.GenerationMode),
		zap.Int("rateLimitCount", cfg.RateLimitCount),
		zap.Duration("rateLimitWindow", cfg.RateLimitWindow))

	// 업로드 임시 디렉토리 준비
	if err := ensureTmpDir(cfg.TmpDir); err != nil {
		zlog.Fatal("❌ Cannot write to TMP directory. Check permissions.", zap.Error(err))
	}

	// Rate limiter (Redis 또는 in-memory)
	var limiter ratelimit.Limiter
	if cfg.RedisEnabled() {
		rdb, err := redisconn.Connect(cfg)
		if err != nil {
			zlog.Fatal("❌ Failed to connect to Redis", zap.Error(err))
		}
		limiter = ratelimit.NewRedis(rdb, cfg.RateLimitCount, cfg.RateLimitWindow)
		zlog.Info("✅ Redis connected", zap.String("addr", cfg.RedisAddr()))
	} else {
		limiter = ratelimit.NewMemory(cfg.RateLimitCount, cfg.RateLimitWindow)
		zlog.Warn("⚠️  REDIS_HOST not set, using in-memory rate limiter")
	}

	// 외부 서비스 클라이언트
	store, err := storage.NewClient(cfg, zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to create storage client", zap.Error(err))
	}

	generator, err := gemini.NewClient(context.Background(), cfg, zlog)
	if err != nil {
		zlog.Fatal("❌ Failed to create Genai client", zap.Error(err))
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	service := redesign.NewService(cfg, redesign.NewImagingTransformer(), store, generator, zlog)
	handler := redesign.NewHandler(cfg, limiter, service, m, zlog)

	// 라우터 설정
	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", healthCheck).Methods("GET")
	r.HandleFunc("/health", healthCheck).Methods("GET")
	r.Handle("/metrics", metrics.Handler()).Methods("GET")
	r.HandleFunc("/api/images/generate", handler.Generate).Methods("POST")

	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)

	zlog.Info("🚀 PDL design server starting", zap.String("port", cfg.Port))

	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		zlog.Fatal("Server failed to start", zap.Error(err))
	}
}

// ensureTmpDir - 임시 디렉토리 생성 및 쓰기 가능 확인
func ensureTmpDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create tmp dir: %w", err)
	}

	probe := filepath.Join(dir, ".write-probe")
	if err := os.WriteFile(probe, nil, 0o644); err != nil {
		return fmt.Errorf("tmp dir not writable: %w", err)
	}
	return os.Remove(probe)
}

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// 헬스 체크 엔드포인트
func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"status":  "healthy",
		"service": "pdl-design-server",
	})
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusMethodNotAllowed)
	json.NewEncoder(w).Encode(map[string]string{
		"error": "Method not allowed",
	})
}
