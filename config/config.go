package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// C holds the loaded configuration.
var C Config

type Config struct {
	Env       string          `yaml:"env"`
	Port      string          `yaml:"port"`
	Mongo     MongoConfig     `yaml:"mongo"`
	Redis     RedisConfig     `yaml:"redis"`
	JWT       JWTConfig       `yaml:"jwt"`
	Firebase  FirebaseConfig  `yaml:"firebase"`
	Minio     MinioConfig     `yaml:"minio"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Image     ImageConfig     `yaml:"image"`
	CORS      CORSConfig      `yaml:"cors"`
}

type MongoConfig struct {
	URI      string `yaml:"uri"`
	Database string `yaml:"database"`
}

type RedisConfig struct {
	Addr     string        `yaml:"addr"`
	Password string        `yaml:"password"`
	TTL      time.Duration `yaml:"ttl"`
}

type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

type FirebaseConfig struct {
	ProjectID string `yaml:"project_id"`
	JWKSURL   string `yaml:"jwks_url"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
	PublicURL string `yaml:"public_url"`
}

type RateLimitConfig struct {
	Window     time.Duration `yaml:"window"`
	Max        int           `yaml:"max"`
	AuthWindow time.Duration `yaml:"auth_window"`
	AuthMax    int           `yaml:"auth_max"`
	OTPWindow  time.Duration `yaml:"otp_window"`
	OTPMax     int           `yaml:"otp_max"`
	TrustProxy bool          `yaml:"trust_proxy"`
}

type ImageConfig struct {
	MaxSize string `yaml:"max_size"`
	Quality int    `yaml:"quality"`
	Format  string `yaml:"format"`

	maxSizeBytes int64
}

// MaxSizeBytes is MaxSize parsed by ParseSize during Load.
func (i ImageConfig) MaxSizeBytes() int64 {
	return i.maxSizeBytes
}

type CORSConfig struct {
	Origins []string `yaml:"origins"`
}

func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads .env, then the optional YAML file, then environment overrides.
func Load() error {
	if err := godotenv.Load(); err != nil {
		log.Printf("Error loading .env file: %v", err)
	}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = "config.yaml"
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &C); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := applyEnv(&C); err != nil {
		return err
	}
	applyDefaults(&C)

	size, err := ParseSize(C.Image.MaxSize)
	if err != nil {
		return fmt.Errorf("IMAGE_MAX_SIZE: %w", err)
	}
	C.Image.maxSizeBytes = size

	if C.JWT.Secret == "" {
		return errors.New("JWT_KEY not set in environment")
	}
	return nil
}

func applyEnv(c *Config) error {
	setString(&c.Env, "APP_ENV")
	setString(&c.Port, "PORT")
	setString(&c.Mongo.URI, "MONGOURI")
	setString(&c.Mongo.Database, "DB")
	setString(&c.Redis.Addr, "REDIS_ADD")
	setString(&c.Redis.Password, "REDIS_PASS")
	setString(&c.JWT.Secret, "JWT_KEY")
	setString(&c.Firebase.ProjectID, "FIREBASE_PROJECT_ID")
	setString(&c.Firebase.JWKSURL, "FIREBASE_JWKS_URL")
	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.Bucket, "MINIO_BUCKET")
	setString(&c.Minio.PublicURL, "MINIO_PUBLIC_URL")
	setString(&c.Image.MaxSize, "IMAGE_MAX_SIZE")
	setString(&c.Image.Format, "IMAGE_FORMAT")

	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.CORS.Origins = nil
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				c.CORS.Origins = append(c.CORS.Origins, o)
			}
		}
	}
	bools := []struct {
		dst *bool
		key string
	}{
		{&c.Minio.UseSSL, "MINIO_USE_SSL"},
		{&c.RateLimit.TrustProxy, "TRUST_PROXY"},
	}
	for _, b := range bools {
		if v := os.Getenv(b.key); v != "" {
			parsed, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", b.key, err)
			}
			*b.dst = parsed
		}
	}

	durations := []struct {
		dst *time.Duration
		key string
	}{
		{&c.JWT.Expiry, "JWT_EXPIRY"},
		{&c.Redis.TTL, "CACHE_TTL"},
		{&c.RateLimit.Window, "RATE_LIMIT_WINDOW"},
		{&c.RateLimit.AuthWindow, "AUTH_RATE_LIMIT_WINDOW"},
		{&c.RateLimit.OTPWindow, "OTP_RATE_LIMIT_WINDOW"},
	}
	for _, d := range durations {
		if v := os.Getenv(d.key); v != "" {
			parsed, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s: %w", d.key, err)
			}
			*d.dst = parsed
		}
	}

	ints := []struct {
		dst *int
		key string
	}{
		{&c.RateLimit.Max, "RATE_LIMIT_MAX"},
		{&c.RateLimit.AuthMax, "AUTH_RATE_LIMIT_MAX"},
		{&c.RateLimit.OTPMax, "OTP_RATE_LIMIT_MAX"},
		{&c.Image.Quality, "IMAGE_QUALITY"},
	}
	for _, i := range ints {
		if v := os.Getenv(i.key); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", i.key, err)
			}
			*i.dst = parsed
		}
	}
	return nil
}

func applyDefaults(c *Config) {
	if c.Env == "" {
		c.Env = "production"
	}
	if c.Port == "" {
		c.Port = "8080"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "property_dealer"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 10 * time.Minute
	}
	if c.JWT.Expiry == 0 {
		c.JWT.Expiry = 30 * 24 * time.Hour
	}
	if c.Firebase.JWKSURL == "" {
		c.Firebase.JWKSURL = "https://www.googleapis.com/service_accounts/v1/jwk/securetoken@system.gserviceaccount.com"
	}
	if c.Minio.Bucket == "" {
		c.Minio.Bucket = "property-images"
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = 15 * time.Minute
	}
	if c.RateLimit.Max == 0 {
		c.RateLimit.Max = 100
	}
	if c.RateLimit.AuthWindow == 0 {
		c.RateLimit.AuthWindow = 15 * time.Minute
	}
	if c.RateLimit.AuthMax == 0 {
		c.RateLimit.AuthMax = 20
	}
	if c.RateLimit.OTPWindow == 0 {
		c.RateLimit.OTPWindow = time.Minute
	}
	if c.RateLimit.OTPMax == 0 {
		c.RateLimit.OTPMax = 2
	}
	if c.Image.MaxSize == "" {
		c.Image.MaxSize = "2MB"
	}
	if c.Image.Quality == 0 {
		c.Image.Quality = 80
	}
	if c.Image.Format == "" {
		c.Image.Format = "jpeg"
	}
	if len(c.CORS.Origins) == 0 {
		c.CORS.Origins = []string{"*"}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

var sizePattern = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)\s*(B|KB|MB|GB)?$`)

// ParseSize converts "2MB", "500KB" or a plain byte count to bytes.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty size string")
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n, nil
	}

	matches := sizePattern.FindStringSubmatch(s)
	if matches == nil {
		return 0, fmt.Errorf("invalid size format: %s (use e.g. '2MB', '500KB')", s)
	}
	value, err := strconv.ParseFloat(matches[1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number in size: %s", s)
	}

	multipliers := map[string]float64{
		"":   1,
		"B":  1,
		"KB": 1024,
		"MB": 1024 * 1024,
		"GB": 1024 * 1024 * 1024,
	}
	return int64(value * multipliers[strings.ToUpper(matches[2])]), nil
}
