package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dcode-github/property_dealer/backend/cache"
	"github.com/dcode-github/property_dealer/backend/images"
	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/services"
	"github.com/dcode-github/property_dealer/backend/store/storetest"
	"github.com/dcode-github/property_dealer/backend/utils"
	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Count   *int            `json:"count"`
	Data    json.RawMessage `json:"data"`
}

type captureSender struct {
	mu   sync.Mutex
	last map[string]string
}

func (c *captureSender) SendOTP(_ context.Context, mobile, otp string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		c.last = make(map[string]string)
	}
	c.last[mobile] = otp
	return nil
}

func (c *captureSender) code(mobile string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.last[mobile]
}

type testEnv struct {
	users  *storetest.Users
	props  *storetest.Properties
	favs   *storetest.Favorites
	chats  *storetest.Chats
	sender *captureSender
	auth   *services.AuthService
	cache  *cache.PropertyCache
	proc   *images.Processor
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	utils.InitJWT("controller-test-secret", time.Hour)
	env := &testEnv{
		users:  storetest.NewUsers(),
		props:  storetest.NewProperties(),
		favs:   storetest.NewFavorites(),
		chats:  storetest.NewChats(),
		sender: &captureSender{},
		cache:  cache.New(nil, time.Minute),
		proc:   images.NewProcessor(images.Options{}, nil),
	}
	env.auth = services.NewAuthService(env.users, env.sender, nil)
	return env
}

func (e *testEnv) addUser(t *testing.T, name, mobile string) string {
	t.Helper()
	u := &models.User{Name: name, Mobile: mobile, Role: models.RoleBuyer}
	if err := e.users.Create(context.Background(), u); err != nil {
		t.Fatal(err)
	}
	return u.ID.Hex()
}

func (e *testEnv) addProperty(t *testing.T, owner string, mutate func(*models.Property)) *models.Property {
	t.Helper()
	oid, err := primitive.ObjectIDFromHex(owner)
	if err != nil {
		t.Fatal(err)
	}
	p := &models.Property{
		Title:        "Two bedroom flat",
		Description:  "Near the station",
		Price:        4500000,
		Address:      "12 MG Road, Pune",
		PropertyType: "apartment",
		Bedrooms:     2,
		Bathrooms:    1,
		User:         oid,
		Status:       models.StatusPending,
	}
	if mutate != nil {
		mutate(p)
	}
	if err := e.props.Create(context.Background(), p); err != nil {
		t.Fatal(err)
	}
	return p
}

func jsonRequest(t *testing.T, method, target string, body interface{}) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asUser(r *http.Request, userID string) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), UserIDKey, userID))
}

func withVars(r *http.Request, vars map[string]string) *http.Request {
	return mux.SetURLVars(r, vars)
}

func serve(h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, data interface{}) envelope {
	t.Helper()
	var env envelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if data != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, data); err != nil {
			t.Fatalf("decode data: %v (%s)", err, env.Data)
		}
	}
	return env
}

func expectStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d, body = %s", rec.Code, want, strings.TrimSpace(rec.Body.String()))
	}
}

type testFile struct {
	name        string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, method, target string, fields map[string]string, files []testFile) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="images"; filename="%s"`, f.name))
		h.Set("Content-Type", f.contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatal(err)
		}
		part.Write(f.data)
	}
	mw.Close()

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func sampleJPEG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 10), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}
