// Package auth implements SMS one-time-code login: a short-lived code per
// phone number kept in redis, an account lockout after repeated failures and
// an HS256 bearer token on success.
package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sarrafio/api/internal/config"
	"github.com/sarrafio/api/internal/repos/users"
	pgusers "github.com/sarrafio/api/internal/repos/users/postgres"
)

const (
	maxLoginAttempts = 5
	lockDuration     = 15 * time.Minute
)

var (
	ErrInvalidPhone  = errors.New("invalid phone number")
	ErrCodeExpired   = errors.New("otp code expired or not requested")
	ErrCodeMismatch  = errors.New("otp code mismatch")
	ErrAccountLocked = errors.New("account locked")
)

var phonePattern = regexp.MustCompile(`^\+?98\d{10}$|^09\d{9}$`)

// CodeStore keeps one pending code per phone with a TTL.
type CodeStore interface {
	Set(ctx context.Context, phone, code string, ttl time.Duration) error
	Get(ctx context.Context, phone string) (string, error)
	Delete(ctx context.Context, phone string) error
}

// Notifier delivers the code to the user. Delivery is best effort and never
// blocks the request.
type Notifier interface {
	SendOTP(ctx context.Context, phone, code string) error
}

type Service struct {
	users    users.Users
	codes    CodeStore
	notifier Notifier
	secret   []byte
	tokenTTL time.Duration
	otpTTL   time.Duration
	now      func() time.Time
}

func New(db *sql.DB, rdb *redis.Client, notifier Notifier, cfg config.AuthConfig) *Service {
	return &Service{
		users:    pgusers.New(db),
		codes:    &redisCodeStore{rdb: rdb},
		notifier: notifier,
		secret:   []byte(cfg.JWTSecret),
		tokenTTL: cfg.TokenTTL,
		otpTTL:   cfg.OTPTTL,
		now:      time.Now,
	}
}

func (s *Service) RequestOTP(ctx context.Context, phone string) error {
	if !phonePattern.MatchString(phone) {
		return ErrInvalidPhone
	}

	code, err := randomCode()
	if err != nil {
		return fmt.Errorf("generate code: %w", err)
	}

	err = s.codes.Set(ctx, phone, code, s.otpTTL)
	if err != nil {
		return fmt.Errorf("store code: %w", err)
	}

	go func() {
		sendCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		serr := s.notifier.SendOTP(sendCtx, phone, code)
		if serr != nil {
			slog.Error("send otp", "phone", phone, "error", serr)
		}
	}()

	return nil
}

// VerifyOTP checks the pending code. On success the user is created on first
// login, the phone verification is stamped and a bearer token issued. Each
// failure counts against the account; the fifth consecutive failure locks it
// for fifteen minutes.
func (s *Service) VerifyOTP(ctx context.Context, phone, code string) (string, *users.User, error) {
	if !phonePattern.MatchString(phone) {
		return "", nil, ErrInvalidPhone
	}

	u, err := s.users.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, users.ErrUserNotFound) {
		return "", nil, fmt.Errorf("get user: %w", err)
	}

	if u != nil && u.LockUntil != nil && s.now().Before(*u.LockUntil) {
		return "", nil, ErrAccountLocked
	}

	stored, err := s.codes.Get(ctx, phone)
	if err != nil {
		return "", nil, err
	}

	if stored != code {
		s.recordFailure(ctx, u)
		return "", nil, ErrCodeMismatch
	}

	err = s.codes.Delete(ctx, phone)
	if err != nil {
		slog.Warn("delete used otp", "phone", phone, "error", err)
	}

	if u == nil {
		u = &users.User{ID: uuid.NewString(), Phone: phone}

		err = s.users.Create(ctx, u)
		if err != nil {
			return "", nil, fmt.Errorf("create user: %w", err)
		}
	}

	err = s.users.MarkPhoneVerified(ctx, u.ID)
	if err != nil {
		return "", nil, fmt.Errorf("mark phone verified: %w", err)
	}

	err = s.users.ResetLoginAttempts(ctx, u.ID)
	if err != nil {
		return "", nil, fmt.Errorf("reset login attempts: %w", err)
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", nil, fmt.Errorf("issue token: %w", err)
	}

	return token, u, nil
}

func (s *Service) recordFailure(ctx context.Context, u *users.User) {
	if u == nil {
		return
	}

	attempts, err := s.users.IncLoginAttempts(ctx, u.ID)
	if err != nil {
		slog.Error("inc login attempts", "user_id", u.ID, "error", err)
		return
	}

	if attempts >= maxLoginAttempts {
		err = s.users.Lock(ctx, u.ID, s.now().Add(lockDuration))
		if err != nil {
			slog.Error("lock account", "user_id", u.ID, "error", err)
		}
	}
}

// Claims is the bearer token payload.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

func (s *Service) issueToken(u *users.User) (string, error) {
	now := s.now()
	claims := Claims{
		Roles: u.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	return signed, nil
}

// ParseToken validates a bearer token and returns its claims.
func ParseToken(secret []byte, raw string) (*Claims, error) {
	var claims Claims

	_, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	return &claims, nil
}

func randomCode() (string, error) {
	var buf [4]byte

	_, err := rand.Read(buf[:])
	if err != nil {
		return "", err
	}

	n := uint32(buf[0])<<24 | uint32(buf[1])<<16 | uint32(buf[2])<<8 | uint32(buf[3])

	return fmt.Sprintf("%06d", n%1_000_000), nil
}

type redisCodeStore struct{ rdb *redis.Client }

func otpKey(phone string) string { return "otp:" + phone }

func (s *redisCodeStore) Set(ctx context.Context, phone, code string, ttl time.Duration) error {
	return s.rdb.Set(ctx, otpKey(phone), code, ttl).Err()
}

func (s *redisCodeStore) Get(ctx context.Context, phone string) (string, error) {
	code, err := s.rdb.Get(ctx, otpKey(phone)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCodeExpired
		}

		return "", fmt.Errorf("get code: %w", err)
	}

	return code, nil
}

func (s *redisCodeStore) Delete(ctx context.Context, phone string) error {
	return s.rdb.Del(ctx, otpKey(phone)).Err()
}
