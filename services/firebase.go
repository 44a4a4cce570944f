package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/MicahParks/keyfunc"
	jwtv4 "github.com/golang-jwt/jwt/v4"
)

// ExternalIdentity is what a verified phone-auth ID token asserts.
type ExternalIdentity struct {
	UID         string
	PhoneNumber string
}

type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*ExternalIdentity, error)
}

type firebaseClaims struct {
	PhoneNumber string `json:"phone_number"`
	jwtv4.RegisteredClaims
}

// FirebaseVerifier checks Firebase Auth ID tokens against Google's published
// signing keys.
type FirebaseVerifier struct {
	projectID string
	keyFunc   jwtv4.Keyfunc
	jwks      *keyfunc.JWKS
}

// NewFirebaseVerifier downloads the JWKS and keeps it refreshed in the
// background until Close is called.
func NewFirebaseVerifier(ctx context.Context, projectID, jwksURL string) (*FirebaseVerifier, error) {
	if projectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID not set")
	}
	jwks, err := keyfunc.Get(jwksURL, keyfunc.Options{
		Ctx:               ctx,
		RefreshInterval:   time.Hour,
		RefreshRateLimit:  5 * time.Minute,
		RefreshTimeout:    10 * time.Second,
		RefreshUnknownKID: true,
		RefreshErrorHandler: func(err error) {
			log.Printf("Error refreshing Firebase JWKS: %v", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("load firebase jwks: %w", err)
	}
	v := newFirebaseVerifier(projectID, jwks.Keyfunc)
	v.jwks = jwks
	return v, nil
}

func newFirebaseVerifier(projectID string, kf jwtv4.Keyfunc) *FirebaseVerifier {
	return &FirebaseVerifier{projectID: projectID, keyFunc: kf}
}

func (v *FirebaseVerifier) Verify(_ context.Context, idToken string) (*ExternalIdentity, error) {
	claims := &firebaseClaims{}
	token, err := jwtv4.ParseWithClaims(idToken, claims, v.keyFunc, jwtv4.WithValidMethods([]string{"RS256"}))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("token not valid")
	}
	if !claims.VerifyAudience(v.projectID, true) {
		return nil, errors.New("unexpected audience")
	}
	if !claims.VerifyIssuer("https://securetoken.google.com/"+v.projectID, true) {
		return nil, errors.New("unexpected issuer")
	}
	if claims.Subject == "" {
		return nil, errors.New("token has no subject")
	}
	return &ExternalIdentity{UID: claims.Subject, PhoneNumber: claims.PhoneNumber}, nil
}

func (v *FirebaseVerifier) Close() {
	if v.jwks != nil {
		v.jwks.EndBackground()
	}
}
