package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"agrisight/farm-portal/farm-portal-backend/internal/config"
)

var (
	// ErrEmailTaken is returned when a registration reuses an email.
	ErrEmailTaken = errors.New("email is already registered")
	// ErrInvalidCredentials is returned on a failed login. The message
	// never says which half of the pair was wrong.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrAccountNotFound is returned when a farmer account does not exist.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidToken is returned when a bearer token fails verification.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// Service manages farmer accounts and issues the portal's bearer
// tokens.
type Service struct {
	db         *gorm.DB
	secret     []byte
	tokenTTL   time.Duration
	bcryptCost int
	logger     *zap.Logger
}

// NewService creates the auth service and migrates its tables.
func NewService(db *gorm.DB, cfg config.AuthConfig, logger *zap.Logger) (*Service, error) {
	if err := db.AutoMigrate(&FarmerAccount{}); err != nil {
		return nil, fmt.Errorf("failed to migrate auth tables: %w", err)
	}

	ttl := cfg.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	return &Service{
		db:         db,
		secret:     []byte(cfg.JWTSecret),
		tokenTTL:   ttl,
		bcryptCost: cost,
		logger:     logger,
	}, nil
}

// Register creates a farmer account and returns it with a fresh token.
func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*FarmerAccount, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var existing int64
	if err := s.db.WithContext(ctx).Model(&FarmerAccount{}).Where("email = ?", email).Count(&existing).Error; err != nil {
		return nil, "", fmt.Errorf("failed to check email: %w", err)
	}
	if existing > 0 {
		return nil, "", ErrEmailTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	account := &FarmerAccount{
		ID:           uuid.New(),
		Name:         strings.TrimSpace(req.Name),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Village:      strings.TrimSpace(req.Village),
		PasswordHash: string(hash),
	}

	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, "", fmt.Errorf("failed to create account: %w", err)
	}

	token, err := s.issueToken(account.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("Farmer registered",
		zap.String("farmer_id", account.ID.String()),
		zap.String("village", account.Village))
	return account, token, nil
}

// Login verifies credentials and returns the account with a token.
func (s *Service) Login(ctx context.Context, req *LoginRequest) (*FarmerAccount, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	var account FarmerAccount
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("failed to load account: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.Password)); err != nil {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.issueToken(account.ID)
	if err != nil {
		return nil, "", err
	}
	return &account, token, nil
}

// VerifyToken checks a bearer token and returns the farmer it names.
func (s *Service) VerifyToken(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	farmerID, err := uuid.Parse(claims.FarmerID)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return farmerID, nil
}

// GetAccount loads a farmer account by ID.
func (s *Service) GetAccount(ctx context.Context, farmerID uuid.UUID) (*FarmerAccount, error) {
	var account FarmerAccount
	err := s.db.WithContext(ctx).First(&account, "id = ?", farmerID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	return &account, nil
}

// UpdateProfile applies partial profile changes.
func (s *Service) UpdateProfile(ctx context.Context, farmerID uuid.UUID, req *UpdateProfileRequest) (*FarmerAccount, error) {
	account, err := s.GetAccount(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		account.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		account.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.Village != nil {
		account.Village = strings.TrimSpace(*req.Village)
	}

	if err := s.db.WithContext(ctx).Save(account).Error; err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return account, nil
}

// ChangePassword rotates the password after checking the current one.
func (s *Service) ChangePassword(ctx context.Context, farmerID uuid.UUID, req *ChangePasswordRequest) error {
	account, err := s.GetAccount(ctx, farmerID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	err = s.db.WithContext(ctx).
		Model(&FarmerAccount{}).
		Where("id = ?", farmerID).
		Update("password_hash", string(hash)).Error
	if err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}
	return nil
}

// EmailFor resolves a farmer to their notification email. It lets the
// notification service look recipients up without importing this
// package's models.
func (s *Service) EmailFor(ctx context.Context, farmerID uuid.UUID) (string, error) {
	account, err := s.GetAccount(ctx, farmerID)
	if err != nil {
		return "", err
	}
	return account.Email, nil
}

func (s *Service) issueToken(farmerID uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		FarmerID: farmerID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}
