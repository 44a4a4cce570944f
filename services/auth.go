// Package services holds the account and login rules shared by the HTTP
// handlers: OTP issue/verification, password lockout and phone-token login.
package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dcode-github/property_dealer/backend/models"
	"github.com/dcode-github/property_dealer/backend/store"
	"github.com/dcode-github/property_dealer/backend/utils"
)

const (
	OTPValidity      = 10 * time.Minute
	MaxLoginAttempts = 5
	LockDuration     = 30 * time.Minute
)

var (
	ErrUserExists         = errors.New("user already exists")
	ErrAadhaarExists      = errors.New("aadhaar already registered")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidOTP         = errors.New("invalid or expired OTP")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNoPassword         = errors.New("password login not enabled for this account")
	ErrAccountLocked      = errors.New("account locked due to too many failed login attempts")
	ErrInvalidToken       = errors.New("phone authentication failed: invalid token")
	ErrInvalidInput       = errors.New("invalid input")
)

type RegisterInput struct {
	Name     string
	Mobile   string
	Aadhaar  string
	Password string
}

type ProfileUpdate struct {
	Name     *string
	Aadhaar  *string
	Password *string
}

// Session is a verified user together with a freshly issued bearer token.
type Session struct {
	User  *models.User
	Token string
}

type AuthService struct {
	users    store.UserStore
	sender   utils.OTPSender
	verifier TokenVerifier
	now      func() time.Time
}

// NewAuthService wires the user store with an OTP sender. verifier may be nil,
// in which case phone-token login always fails with ErrInvalidToken.
func NewAuthService(users store.UserStore, sender utils.OTPSender, verifier TokenVerifier) *AuthService {
	if sender == nil {
		sender = utils.LogSender{}
	}
	return &AuthService{users: users, sender: sender, verifier: verifier, now: time.Now}
}

// SetClock replaces the time source; used by tests to move past OTP expiry and lockouts.
func (s *AuthService) SetClock(now func() time.Time) {
	s.now = now
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	mobile := utils.NormalizeMobile(in.Mobile)
	if mobile == "" {
		return nil, fmt.Errorf("%w: mobile", ErrInvalidInput)
	}

	if _, err := s.users.FindByMobile(ctx, mobile); err == nil {
		return nil, ErrUserExists
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("lookup mobile: %w", err)
	}

	if in.Aadhaar != "" {
		if _, err := s.users.FindByAadhaar(ctx, in.Aadhaar); err == nil {
			return nil, ErrAadhaarExists
		} else if !errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("lookup aadhaar: %w", err)
		}
	}

	user := &models.User{
		Name:    in.Name,
		Mobile:  mobile,
		Aadhaar: in.Aadhaar,
		Role:    models.RoleBuyer,
	}
	if in.Password != "" {
		hash, err := utils.HashPassword(in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = hash
	}
	otp, err := s.issueOTP(user)
	if err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	if err := s.sender.SendOTP(ctx, mobile, otp); err != nil {
		log.Printf("Error sending OTP to %s: %v", utils.MaskMobile(mobile), err)
	}
	return user, nil
}

// RequestOTP issues a fresh code for an existing account.
func (s *AuthService) RequestOTP(ctx context.Context, mobile string) (*models.User, error) {
	user, err := s.findByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	otp, err := s.issueOTP(user)
	if err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("save otp: %w", err)
	}
	if err := s.sender.SendOTP(ctx, user.Mobile, otp); err != nil {
		log.Printf("Error sending OTP to %s: %v", utils.MaskMobile(user.Mobile), err)
	}
	return user, nil
}

// VerifyOTP consumes the pending code. A mismatched or expired code leaves the
// account untouched and issues no token.
func (s *AuthService) VerifyOTP(ctx context.Context, userID, otp string) (*Session, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	if user.OTP == "" || user.OTPExpires == nil || otp == "" {
		return nil, ErrInvalidOTP
	}
	if subtle.ConstantTimeCompare([]byte(user.OTP), []byte(otp)) != 1 || s.now().After(*user.OTPExpires) {
		return nil, ErrInvalidOTP
	}

	user.OTP = ""
	user.OTPExpires = nil
	if err := s.users.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("clear otp: %w", err)
	}
	return s.session(user)
}

// LoginWithPassword checks the password and maintains the lockout counters.
// The fifth consecutive failure locks the account for LockDuration; while
// locked even the correct password is refused.
func (s *AuthService) LoginWithPassword(ctx context.Context, mobile, password string) (*Session, error) {
	user, err := s.findByMobile(ctx, mobile)
	if err != nil {
		return nil, err
	}
	if !user.HasPassword() {
		return nil, ErrNoPassword
	}

	now := s.now()
	if user.IsLocked(now) {
		return nil, ErrAccountLocked
	}
	dirty := false
	if user.LockUntil != nil {
		user.LoginAttempts = 0
		user.LockUntil = nil
		dirty = true
	}

	if !utils.CheckPasswordHash(password, user.Password) {
		user.LoginAttempts++
		if user.LoginAttempts >= MaxLoginAttempts {
			lock := now.Add(LockDuration)
			user.LockUntil = &lock
			log.Printf("Account %s locked until %s", utils.MaskMobile(user.Mobile), lock.Format(time.RFC3339))
		}
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("record failed login: %w", err)
		}
		return nil, ErrInvalidCredentials
	}

	if dirty || user.LoginAttempts != 0 {
		user.LoginAttempts = 0
		if err := s.users.Update(ctx, user); err != nil {
			return nil, fmt.Errorf("reset login attempts: %w", err)
		}
	}
	return s.session(user)
}

// LoginWithPhoneToken verifies a third-party phone-auth ID token and upserts
// the user by external UID. created reports whether a new account was made.
func (s *AuthService) LoginWithPhoneToken(ctx context.Context, idToken, name, aadhaar string) (sess *Session, created bool, err error) {
	if s.verifier == nil || idToken == "" {
		return nil, false, ErrInvalidToken
	}
	identity, err := s.verifier.Verify(ctx, idToken)
	if err != nil {
		log.Printf("Error verifying phone token: %v", err)
		return nil, false, ErrInvalidToken
	}

	user, err := s.users.FindByFirebaseUID(ctx, identity.UID)
	if err == nil {
		sess, err := s.session(user)
		return sess, false, err
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup uid: %w", err)
	}

	mobile := utils.NormalizeMobile(identity.PhoneNumber)
	if mobile == "" {
		return nil, false, fmt.Errorf("%w: token carries no usable phone number", ErrInvalidToken)
	}

	// an account registered through OTP is linked instead of duplicated
	if existing, err := s.users.FindByMobile(ctx, mobile); err == nil {
		existing.FirebaseUID = identity.UID
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, false, fmt.Errorf("link uid: %w", err)
		}
		sess, err := s.session(existing)
		return sess, false, err
	} else if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("lookup mobile: %w", err)
	}

	if name == "" {
		name = "User"
	}
	user = &models.User{
		Name:        name,
		Mobile:      mobile,
		FirebaseUID: identity.UID,
		Role:        models.RoleBuyer,
	}
	if aadhaar != "" {
		if !utils.ValidAadhaar(aadhaar) {
			return nil, false, fmt.Errorf("%w: aadhaar", ErrInvalidInput)
		}
		if _, err := s.users.FindByAadhaar(ctx, aadhaar); err == nil {
			return nil, false, ErrAadhaarExists
		}
		user.Aadhaar = aadhaar
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, false, ErrUserExists
		}
		return nil, false, fmt.Errorf("create user: %w", err)
	}
	sess, err = s.session(user)
	return sess, true, err
}

// CheckAuthMethod tells the client whether to offer password login.
func (s *AuthService) CheckAuthMethod(ctx context.Context, mobile string) (exists, hasPassword bool, err error) {
	user, err := s.findByMobile(ctx, mobile)
	if errors.Is(err, ErrUserNotFound) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return true, user.HasPassword(), nil
}

func (s *AuthService) Profile(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) || errors.Is(err, store.ErrInvalidID) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != nil {
		if *upd.Name == "" {
			return nil, fmt.Errorf("%w: name", ErrInvalidInput)
		}
		user.Name = *upd.Name
	}
	if upd.Aadhaar != nil && *upd.Aadhaar != user.Aadhaar {
		if *upd.Aadhaar != "" {
			if !utils.ValidAadhaar(*upd.Aadhaar) {
				return nil, fmt.Errorf("%w: aadhaar", ErrInvalidInput)
			}
			if other, err := s.users.FindByAadhaar(ctx, *upd.Aadhaar); err == nil && other.ID != user.ID {
				return nil, ErrAadhaarExists
			}
		}
		user.Aadhaar = *upd.Aadhaar
	}
	if upd.Password != nil {
		if len(*upd.Password) < 6 {
			return nil, fmt.Errorf("%w: password must be at least 6 characters", ErrInvalidInput)
		}
		hash, err := utils.HashPassword(*upd.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.Password = hash
		user.LoginAttempts = 0
		user.LockUntil = nil
	}

	if err := s.users.Update(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, ErrAadhaarExists
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

func (s *AuthService) findByMobile(ctx context.Context, mobile string) (*models.User, error) {
	normalized := utils.NormalizeMobile(mobile)
	if normalized == "" {
		return nil, fmt.Errorf("%w: mobile", ErrInvalidInput)
	}
	user, err := s.users.FindByMobile(ctx, normalized)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("lookup mobile: %w", err)
	}
	return user, nil
}

func (s *AuthService) issueOTP(user *models.User) (string, error) {
	otp, err := utils.GenerateOTP()
	if err != nil {
		return "", err
	}
	expires := s.now().Add(OTPValidity)
	user.OTP = otp
	user.OTPExpires = &expires
	return otp, nil
}

func (s *AuthService) session(user *models.User) (*Session, error) {
	token, err := utils.GenerateJWT(user.ID.Hex(), user.Role)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &Session{User: user, Token: token}, nil
}
