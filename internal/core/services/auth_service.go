package services

import (
	"context"
	"errors"
	"log"

	"affiliatehub/internal/adapters/identity"
	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/adapters/persistence/repositories"
	"affiliatehub/internal/config"
	"affiliatehub/internal/core/domain"
	"affiliatehub/internal/pkg/identifier"
	"affiliatehub/internal/pkg/jwt"
	"affiliatehub/internal/pkg/password"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthService handles authentication business logic
type AuthService struct {
	accountRepo      repositories.UserAccountRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	provider         identity.Provider
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	accountRepo repositories.UserAccountRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	provider identity.Provider,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		accountRepo:      accountRepo,
		refreshTokenRepo: refreshTokenRepo,
		provider:         provider,
		cfg:              cfg,
	}
}

// LoginInput represents login input
type LoginInput struct {
	IDNumber string `json:"idNumber"`
	Password string `json:"password"`
}

// TokenPair represents access and refresh tokens
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// AuthResponse represents authentication response
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Login authenticates an affiliate by CPF and password.
// Every failure is reported as domain.ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	// 1. Find account by CPF, plain or formatted
	if !identifier.IsValidIDNumber(input.IDNumber) || input.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}
	account, err := s.accountRepo.GetByIDNumbers(ctx, identifier.IDNumberVariants(input.IDNumber))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 2. Verify password against the identity
	principal, err := s.provider.SignInWithPassword(ctx, account.Email, input.Password)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	// 3. Issue tokens
	response, err := s.issue(ctx, principal, account)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Affiliate logged in: %s", identifier.MaskIDNumber(account.IDNumber))
	return response, nil
}

// RefreshToken rotates the refresh token
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	// 1. Validate refresh token JWT
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	// 2. Find token in DB
	storedToken, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrTokenRevoked
		}
		return nil, err
	}
	if storedToken.IsExpired() {
		return nil, domain.ErrTokenExpired
	}

	// 3. Load identity and account
	principal, err := s.provider.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	account, err := s.accountRepo.GetByID(ctx, principal.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// 4. Revoke old refresh token (Token Rotation)
	if err := s.refreshTokenRepo.Revoke(ctx, storedToken.ID); err != nil {
		return nil, err
	}

	response, err := s.issue(ctx, principal, account)
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Token refreshed for user: %s", principal.ID)
	return response, nil
}

// Logout revokes the refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken)); err != nil {
		return err
	}

	log.Printf("✅ User logged out")
	return nil
}

// LogoutAll revokes all refresh tokens for a user
func (s *AuthService) LogoutAll(ctx context.Context, userID string) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}

	log.Printf("✅ All sessions revoked for user: %s", userID)
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetCurrentUser returns the profile of userID
func (s *AuthService) GetCurrentUser(ctx context.Context, userID string) (*models.UserResponse, error) {
	principal, err := s.provider.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrIdentityNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	account, err := s.accountRepo.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return profile(principal, account), nil
}

// CleanupExpiredTokens deletes refresh tokens past their expiry
func (s *AuthService) CleanupExpiredTokens(ctx context.Context) (int64, error) {
	return s.refreshTokenRepo.DeleteExpired(ctx)
}

// profile merges the identity with its account row, which may be missing
func profile(principal *models.Identity, account *models.UserAccount) *models.UserResponse {
	meta := principal.Meta()
	if account == nil {
		return &models.UserResponse{
			ID:            principal.ID,
			Email:         principal.Email,
			IDNumber:      identifier.MaskIDNumber(meta.IDNumber),
			AffiliateCode: meta.AffiliateCode,
			FullName:      meta.FullName,
		}
	}
	response := account.ToResponse()
	if response.AffiliateCode == "" {
		response.AffiliateCode = meta.AffiliateCode
	}
	response.FullName = meta.FullName
	return response
}

// issue generates and stores a token pair
func (s *AuthService) issue(ctx context.Context, principal *models.Identity, account *models.UserAccount) (*AuthResponse, error) {
	user := profile(principal, account)

	tokens, err := s.generateTokens(principal.ID, principal.Email, user.AffiliateCode)
	if err != nil {
		return nil, err
	}
	if err := s.storeRefreshToken(ctx, principal.ID, tokens.RefreshToken); err != nil {
		return nil, err
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(userID, email, affiliateCode string) (*TokenPair, error) {
	accessToken, err := jwt.GenerateAccessToken(
		userID,
		email,
		affiliateCode,
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTokenMins,
	)
	if err != nil {
		return nil, err
	}

	// Generate unique token ID
	tokenID := uuid.New().String()

	refreshToken, err := jwt.GenerateRefreshToken(
		userID,
		tokenID,
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTokenDays,
	)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// storeRefreshToken stores a refresh token in the database
func (s *AuthService) storeRefreshToken(ctx context.Context, userID string, refreshToken string) error {
	token := &models.RefreshToken{
		UserID:    userID,
		TokenHash: password.HashToken(refreshToken),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}
	return s.refreshTokenRepo.Create(ctx, token)
}
