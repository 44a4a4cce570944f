package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dcode-github/property_dealer/backend/cache"
	"github.com/dcode-github/property_dealer/backend/config"
	"github.com/dcode-github/property_dealer/backend/images"
	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/services"
	"github.com/dcode-github/property_dealer/backend/store/storetest"
	"github.com/dcode-github/property_dealer/backend/utils"
	"github.com/gorilla/mux"
)

type otpCapture map[string]string

func (c otpCapture) SendOTP(_ context.Context, mobile, otp string) error {
	c[mobile] = otp
	return nil
}

type testServer struct {
	router *mux.Router
	users  *storetest.Users
	otps   otpCapture
}

func newTestServer(t *testing.T, limits config.RateLimitConfig) *testServer {
	t.Helper()
	utils.InitJWT("routes-test-secret", time.Hour)
	users := storetest.NewUsers()
	otps := otpCapture{}
	router := mux.NewRouter()
	Routes(router, Deps{
		Auth:       services.NewAuthService(users, otps, nil),
		Users:      users,
		Properties: storetest.NewProperties(),
		Favorites:  storetest.NewFavorites(),
		Chats:      storetest.NewChats(),
		Cache:      cache.New(nil, time.Minute),
		Images:     images.NewProcessor(images.Options{}, nil),
		RateLimit:  limits,
	})
	return &testServer{router: router, users: users, otps: otps}
}

func generousLimits() config.RateLimitConfig {
	return config.RateLimitConfig{
		Window: time.Minute, Max: 1000,
		AuthWindow: time.Minute, AuthMax: 1000,
		OTPWindow: time.Minute, OTPMax: 1000,
	}
}

func (s *testServer) call(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]json.RawMessage) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "203.0.113.7:5555"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	out := map[string]json.RawMessage{}
	json.Unmarshal(rec.Body.Bytes(), &out)
	return rec, out
}

func (s *testServer) login(t *testing.T, name, mobile string) string {
	t.Helper()
	rec, body := s.call(t, http.MethodPost, "/api/auth/register", "", map[string]string{"name": name, "mobile": mobile})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: %d %s", rec.Code, rec.Body.String())
	}
	var issued struct {
		UserID string `json:"userId"`
	}
	json.Unmarshal(body["data"], &issued)

	rec, body = s.call(t, http.MethodPost, "/api/auth/verify-otp", "", map[string]string{
		"userId": issued.UserID,
		"otp":    s.otps[utils.NormalizeMobile(mobile)],
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: %d %s", rec.Code, rec.Body.String())
	}
	var sess struct {
		Token string `json:"token"`
	}
	json.Unmarshal(body["data"], &sess)
	return sess.Token
}

func TestEndToEndListingFlow(t *testing.T) {
	s := newTestServer(t, generousLimits())
	token := s.login(t, "Seller", "9811000001")

	rec, _ := s.call(t, http.MethodPost, "/api/properties", "", map[string]interface{}{"title": "x"})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unauthenticated create: %d", rec.Code)
	}

	rec, body := s.call(t, http.MethodPost, "/api/properties", token, map[string]interface{}{
		"title": "Studio", "description": "Compact", "price": 2500000, "address": "Baner, Pune", "propertyType": "apartment",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: %d %s", rec.Code, rec.Body.String())
	}
	var created models.Property
	json.Unmarshal(body["data"], &created)

	for _, path := range []string{"/api/properties", "/api/properties/search?keyword=studio", "/api/search?keyword=studio", "/api/properties/" + created.ID.Hex()} {
		rec, _ = s.call(t, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s: %d", path, rec.Code)
		}
	}

	rec, body = s.call(t, http.MethodGet, "/api/properties/user/my-properties", token, nil)
	if rec.Code != http.StatusOK || string(body["count"]) != "1" {
		t.Errorf("my-properties: %d count=%s", rec.Code, body["count"])
	}

	rec, _ = s.call(t, http.MethodPost, "/api/favorites/"+created.ID.Hex(), token, nil)
	if rec.Code != http.StatusCreated {
		t.Errorf("favorite: %d", rec.Code)
	}
	rec, body = s.call(t, http.MethodGet, "/api/favorites", token, nil)
	if rec.Code != http.StatusOK || string(body["count"]) != "1" {
		t.Errorf("favorites: %d count=%s", rec.Code, body["count"])
	}

	rec, _ = s.call(t, http.MethodGet, "/health", "", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("health: %d", rec.Code)
	}
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	s := newTestServer(t, generousLimits())
	token := s.login(t, "Buyer", "9811000002")

	rec, _ := s.call(t, http.MethodGet, "/api/admin/users", token, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("buyer on admin route: %d", rec.Code)
	}

	admin := &models.User{Name: "Admin", Mobile: "+919811000003", Role: models.RoleAdmin}
	if err := s.users.Create(context.Background(), admin); err != nil {
		t.Fatal(err)
	}
	adminToken, err := utils.GenerateJWT(admin.ID.Hex(), models.RoleAdmin)
	if err != nil {
		t.Fatal(err)
	}
	rec, _ = s.call(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("admin route: %d", rec.Code)
	}
}

func TestOTPRateLimit(t *testing.T) {
	limits := generousLimits()
	limits.OTPMax = 2
	s := newTestServer(t, limits)

	codes := []int{}
	for i := 0; i < 3; i++ {
		rec, _ := s.call(t, http.MethodPost, "/api/auth/login", "", map[string]string{"mobile": "9811000009"})
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusNotFound || codes[1] != http.StatusNotFound || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}
}
