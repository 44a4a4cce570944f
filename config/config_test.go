package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func resetConfig(t *testing.T) {
	t.Helper()
	C = Config{}
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
	for _, key := range []string{"JWT_KEY", "PORT", "IMAGE_MAX_SIZE", "RATE_LIMIT_MAX", "CACHE_TTL", "CORS_ORIGINS", "APP_ENV", "MINIO_USE_SSL", "TRUST_PROXY"} {
		t.Setenv(key, "")
	}
}

func TestLoad_RequiresJWTKey(t *testing.T) {
	resetConfig(t)
	if err := Load(); err == nil {
		t.Fatal("expected error without JWT_KEY")
	}
}

func TestLoad_Defaults(t *testing.T) {
	resetConfig(t)
	t.Setenv("JWT_KEY", "secret")

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if C.Port != "8080" || C.Mongo.Database != "property_dealer" {
		t.Errorf("port/db = %q/%q", C.Port, C.Mongo.Database)
	}
	if C.JWT.Expiry != 30*24*time.Hour {
		t.Errorf("jwt expiry = %v", C.JWT.Expiry)
	}
	if C.RateLimit.OTPMax != 2 || C.RateLimit.OTPWindow != time.Minute {
		t.Errorf("otp limit = %d per %v", C.RateLimit.OTPMax, C.RateLimit.OTPWindow)
	}
	if C.Image.MaxSizeBytes() != 2*1024*1024 || C.Image.Quality != 80 {
		t.Errorf("image = %d bytes q%d", C.Image.MaxSizeBytes(), C.Image.Quality)
	}
	if C.IsDevelopment() {
		t.Error("default env should not be development")
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	resetConfig(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := []byte("port: \"9000\"\nenv: development\njwt:\n  secret: from-file\nrate_limit:\n  max: 50\nimage:\n  max_size: 500KB\n")
	if err := os.WriteFile(path, yaml, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "9100")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("TRUST_PROXY", "true")

	if err := Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if C.Port != "9100" {
		t.Errorf("env should override file: port = %q", C.Port)
	}
	if C.JWT.Secret != "from-file" || C.RateLimit.Max != 50 || !C.IsDevelopment() {
		t.Errorf("file values not applied: %+v", C)
	}
	if C.Image.MaxSizeBytes() != 500*1024 {
		t.Errorf("max size = %d", C.Image.MaxSizeBytes())
	}
	if C.Redis.TTL != 90*time.Second {
		t.Errorf("ttl = %v", C.Redis.TTL)
	}
	if len(C.CORS.Origins) != 2 || C.CORS.Origins[1] != "https://b.example" {
		t.Errorf("origins = %q", C.CORS.Origins)
	}
	if !C.RateLimit.TrustProxy {
		t.Error("TRUST_PROXY not applied")
	}
}

func TestLoad_BadValues(t *testing.T) {
	for key, value := range map[string]string{
		"RATE_LIMIT_MAX": "lots",
		"CACHE_TTL":      "forever",
		"IMAGE_MAX_SIZE": "2XB",
		"MINIO_USE_SSL":  "maybe",
		"TRUST_PROXY":    "sometimes",
	} {
		resetConfig(t)
		t.Setenv("JWT_KEY", "secret")
		t.Setenv(key, value)
		if err := Load(); err == nil {
			t.Errorf("%s=%s: expected error", key, value)
		}
	}
}

func TestParseSize(t *testing.T) {
	cases := map[string]int64{
		"1024":  1024,
		"10B":   10,
		"2MB":   2 * 1024 * 1024,
		"500kb": 500 * 1024,
		"1.5MB": 1572864,
		"1GB":   1 << 30,
	}
	for in, want := range cases {
		got, err := ParseSize(in)
		if err != nil || got != want {
			t.Errorf("ParseSize(%q) = %d, %v; want %d", in, got, err, want)
		}
	}
	for _, bad := range []string{"", "MB", "2TB", "-1MB"} {
		if _, err := ParseSize(bad); err == nil {
			t.Errorf("ParseSize(%q) should fail", bad)
		}
	}
}
