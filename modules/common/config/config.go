package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config - 전체 환경설정
type Config struct {
	// Server
	Port   string
	TmpDir string

	// Upload limits
	MaxFileSizeMB    int
	AllowedMimeTypes []string

	// Rate limiting
	RateLimitCount  int
	RateLimitWindow time.Duration

	// Redis (비어있으면 in-memory limiter 사용)
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase Storage
	SupabaseURL        string
	SupabaseServiceKey string
	StorageBucket      string
	StorageFolder      string
	UploadTimeout      time.Duration

	// Gemini API
	GeminiAPIKey      string
	GeminiModel       string
	GenerationMode    string // "edit" | "generate"
	GenerationUseMask bool
	GenerationTimeout time.Duration

	// Logging
	LogLevel  string
	LogFormat string
}

const (
	ModeEdit     = "edit"
	ModeGenerate = "generate"
)

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	cfg := &Config{
		Port:   getEnv("PORT", "8080"),
		TmpDir: getEnv("TMP_DIR", "./tmp"),

		MaxFileSizeMB:    getEnvInt("MAX_FILE_SIZE_MB", 5),
		AllowedMimeTypes: getEnvList("ALLOWED_MIME_TYPES", []string{"image/png", "image/jpeg", "image/jpg"}),

		RateLimitCount:  getEnvInt("RATE_LIMIT_COUNT", 100),
		RateLimitWindow: getEnvDuration("RATE_LIMIT_WINDOW_MS", 15*time.Minute),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getEnvBool("REDIS_USE_TLS", false),

		SupabaseURL:        getEnv("SUPABASE_URL", ""),
		SupabaseServiceKey: getEnv("SUPABASE_SERVICE_KEY", ""),
		StorageBucket:      getEnv("STORAGE_BUCKET", "attachments"),
		StorageFolder:      getEnv("STORAGE_FOLDER", "pdl/generated"),
		UploadTimeout:      getEnvDuration("UPLOAD_TIMEOUT_MS", 30*time.Second),

		GeminiAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-2.5-flash-image"),
		GenerationMode:    getEnv("GENERATION_MODE", ModeEdit),
		GenerationUseMask: getEnvBool("GENERATION_USE_MASK", false),
		GenerationTimeout: getEnvDuration("GENERATION_TIMEOUT_MS", 60*time.Second),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.SupabaseURL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.SupabaseServiceKey == "" {
		return fmt.Errorf("SUPABASE_SERVICE_KEY is required")
	}
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required")
	}
	if c.GenerationMode != ModeEdit && c.GenerationMode != ModeGenerate {
		return fmt.Errorf("GENERATION_MODE must be %q or %q, got %q", ModeEdit, ModeGenerate, c.GenerationMode)
	}
	if c.MaxFileSizeMB <= 0 {
		return fmt.Errorf("MAX_FILE_SIZE_MB must be positive")
	}
	if c.RateLimitCount <= 0 || c.RateLimitWindow <= 0 {
		return fmt.Errorf("rate limit count and window must be positive")
	}
	return nil
}

// MaxFileSizeBytes - 업로드 최대 크기 (bytes)
func (c *Config) MaxFileSizeBytes() int64 {
	return int64(c.MaxFileSizeMB) * 1024 * 1024
}

// RedisAddr - Redis 연결 문자열 생성
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}

// RedisEnabled - Redis 설정 여부
func (c *Config) RedisEnabled() bool {
	return c.RedisHost != ""
}

// MimeAllowed - 허용된 MIME 타입인지 확인
func (c *Config) MimeAllowed(mime string) bool {
	for _, allowed := range c.AllowedMimeTypes {
		if strings.EqualFold(mime, allowed) {
			return true
		}
	}
	return false
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.Atoi(value); err == nil && ms > 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
