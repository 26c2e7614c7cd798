package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	Environment    string
	LogLevel       string
	MaxUploadBytes int64
	RequestTimeout time.Duration
	// AllowedOrigins feeds the API CORS policy; "*" allows any origin.
	AllowedOrigins []string
	Database       DatabaseConfig
	Redis          RedisConfig
	Assets         AssetsConfig
	Export         ExportConfig
}

// DatabaseConfig selects the record store. An empty URL keeps records in
// memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig enables the rendered-document cache when URL is set.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// AssetsConfig locates uploaded photos.
type AssetsConfig struct {
	UploadDir string
	// BaseURL is where clients (and exportctl) fetch /uploads from.
	BaseURL string
	OSS     OSSConfig
}

// OSSConfig stores photos in an Aliyun OSS bucket when every field is set.
type OSSConfig struct {
	Endpoint        string
	AccessKeyID     string
	AccessKeySecret string
	Bucket          string
}

// Enabled reports whether all OSS settings are present.
func (c OSSConfig) Enabled() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.AccessKeySecret != "" && c.Bucket != ""
}

// ExportConfig tunes the bulk export pipeline.
type ExportConfig struct {
	BatchSize        int
	PhotoWait        time.Duration
	DocumentCacheTTL time.Duration
}

// Defaults.
const (
	DefaultAddr           = ":5000"
	DefaultUploadDir      = "uploads"
	DefaultAssetBaseURL   = "http://127.0.0.1:5000/"
	DefaultBatchSize      = 20
	DefaultPhotoWait      = 3 * time.Second
	DefaultCacheTTL       = 10 * time.Minute
	DefaultMaxUploadBytes = 10 << 20
	DefaultRequestTimeout = 30 * time.Second
)

// LoadDotEnv loads KEY=value pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	return Server{
		Addr:           getString("AREFA_ADDR", DefaultAddr),
		Environment:    getString("ENVIRONMENT", "dev"),
		LogLevel:       getString("LOG_LEVEL", "info"),
		MaxUploadBytes: int64(getInt("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes)),
		RequestTimeout: getDuration("REQUEST_TIMEOUT", DefaultRequestTimeout),
		AllowedOrigins: getList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    getInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getDuration("DATABASE_CONN_MAX_LIFETIME", 5*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     getInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: getInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  getDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  getDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: getDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Assets: AssetsConfig{
			UploadDir: getString("UPLOAD_DIR", DefaultUploadDir),
			BaseURL:   getString("ASSET_BASE_URL", DefaultAssetBaseURL),
			OSS: OSSConfig{
				Endpoint:        os.Getenv("OSS_ENDPOINT"),
				AccessKeyID:     os.Getenv("OSS_ACCESS_KEY_ID"),
				AccessKeySecret: os.Getenv("OSS_ACCESS_KEY_SECRET"),
				Bucket:          os.Getenv("OSS_BUCKET"),
			},
		},
		Export: ExportConfig{
			BatchSize:        getInt("EXPORT_BATCH_SIZE", DefaultBatchSize),
			PhotoWait:        getDuration("PHOTO_WAIT", DefaultPhotoWait),
			DocumentCacheTTL: getDuration("DOCUMENT_CACHE_TTL", DefaultCacheTTL),
		},
	}
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getList(key string, def []string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}

// getInt keeps the default for unset, malformed or non-positive values.
func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return def
}
