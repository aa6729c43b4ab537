package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"storefront/internal/models"
	"storefront/internal/util"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthStore is the slice of the store the auth workflows need
type AuthStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// TokenRevoker keeps signed-out tokens until they would have expired
// anyway. A nil revoker makes logout a stateless acknowledgment.
type TokenRevoker interface {
	RevokeToken(ctx context.Context, token string, ttl time.Duration) error
	IsTokenRevoked(ctx context.Context, token string) (bool, error)
}

// AuthService handles registration, login, logout and token
// verification
type AuthService struct {
	store    AuthStore
	revoker  TokenRevoker
	secret   []byte
	tokenTTL time.Duration
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(store AuthStore, revoker TokenRevoker, jwtSecret string, tokenTTL time.Duration) *AuthService {
	return &AuthService{
		store:    store,
		revoker:  revoker,
		secret:   []byte(jwtSecret),
		tokenTTL: tokenTTL,
		logger:   util.NamedLogger("auth"),
	}
}

// RegisterForm carries the registration fields
type RegisterForm struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// Validate checks the registration form structurally
func (f *RegisterForm) Validate() *ValidationError {
	verr := NewValidationError()
	if len(strings.TrimSpace(f.Name)) < 2 {
		verr.Add("name", "Name must be at least 2 characters")
	}
	if !emailPattern.MatchString(f.Email) {
		verr.Add("email", "Please enter a valid email address")
	}
	if len(f.Password) < 8 {
		verr.Add("password", "Password must be at least 8 characters")
	}
	if f.Password != f.ConfirmPassword {
		verr.Add("confirmPassword", "Passwords do not match")
	}
	if verr.Empty() {
		return nil
	}
	return verr
}

// Register creates an account and signs the user in (registration is
// auto-login). A duplicate email is a business error, not a crash.
func (s *AuthService) Register(ctx context.Context, form *RegisterForm) (string, *models.User, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Register")
	defer span.End()

	if verr := form.Validate(); verr != nil {
		return "", nil, verr
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(form.Password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Name:         strings.TrimSpace(form.Name),
		Email:        strings.ToLower(strings.TrimSpace(form.Email)),
		PasswordHash: string(hash),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if IsDuplicate(err) {
			return "", nil, ErrDuplicateEmail
		}
		return "", nil, err
	}

	util.UsersRegisteredTotal.Inc()
	s.logger.Info("User registered", zap.Int64("user_id", user.ID))

	token, err := s.signToken(user.ID)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// Login verifies credentials and returns a signed token. A missing
// user and a wrong password produce the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	ctx, span := util.StartSpan(ctx, "AuthService.Login")
	defer span.End()

	user, err := s.store.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if IsNotFound(err) {
			return "", nil, ErrUnauthorized
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrUnauthorized
	}

	token, err := s.signToken(user.ID)
	if err != nil {
		return "", nil, err
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID))
	return token, user, nil
}

// Logout revokes the presented token for its remaining lifetime. With
// no revoker configured the token simply ages out.
func (s *AuthService) Logout(ctx context.Context, tokenString string) error {
	if s.revoker == nil {
		return nil
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return ErrUnauthorized
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ErrUnauthorized
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return ErrUnauthorized
	}

	ttl := time.Until(exp.Time)
	if ttl <= 0 {
		return nil
	}
	if err := s.revoker.RevokeToken(ctx, tokenString, ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	s.logger.Info("User logged out")
	return nil
}

func (s *AuthService) signToken(userID int64) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// VerifyToken parses a bearer token and loads the user it names. Any
// parse or lookup failure is ErrUnauthorized.
func (s *AuthService) VerifyToken(ctx context.Context, tokenString string) (*models.User, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrUnauthorized
	}

	if s.revoker != nil {
		revoked, err := s.revoker.IsTokenRevoked(ctx, tokenString)
		if err != nil {
			// revocation check degrades open, like the rate limiter
			s.logger.Warn("Token revocation check failed", zap.Error(err))
		} else if revoked {
			return nil, ErrUnauthorized
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrUnauthorized
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, ErrUnauthorized
	}
	userID, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return nil, ErrUnauthorized
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	return user, nil
}
