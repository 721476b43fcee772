package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yungbote/habitflow-backend/internal/apierr"
	"github.com/yungbote/habitflow-backend/internal/logger"
	"github.com/yungbote/habitflow-backend/internal/repos"
	"github.com/yungbote/habitflow-backend/internal/requestdata"
	"github.com/yungbote/habitflow-backend/internal/types"
)

type JWTClaims struct {
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*types.User, error)
	Login(ctx context.Context, email, password string) (string, string, error)
	Refresh(ctx context.Context) (string, string, error)
	Logout(ctx context.Context) error
	SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	serviceLog := log.With("service", "AuthService")
	return &authService{
		db:            db,
		log:           serviceLog,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) Register(ctx context.Context, input RegisterInput) (*types.User, error) {
	input.Username = strings.TrimSpace(input.Username)
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))

	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, apierr.InvalidRequest(fmt.Errorf("username, email and password are required"))
	}
	emailExists, err := as.userRepo.EmailExists(ctx, nil, input.Email)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to check user email: %w", err))
	}
	if emailExists {
		return nil, apierr.Conflict(fmt.Errorf("email is already in use"))
	}
	usernameExists, err := as.userRepo.UsernameExists(ctx, nil, input.Username)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to check username: %w", err))
	}
	if usernameExists {
		return nil, apierr.Conflict(fmt.Errorf("username is already in use"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to hash password: %w", err))
	}
	user := &types.User{
		ID:       uuid.New(),
		Username: input.Username,
		Email:    input.Email,
		Password: string(hashed),
	}
	if _, err := as.userRepo.Create(ctx, nil, user); err != nil {
		return nil, apierr.Internal(fmt.Errorf("Failed to create user: %w", err))
	}
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (string, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", "", apierr.InvalidRequest(fmt.Errorf("email and password are required"))
	}

	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", "", apierr.Unauthenticated(fmt.Errorf("invalid credentials"))
		}
		return "", "", apierr.Internal(fmt.Errorf("Failed to load user: %w", err))
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", "", apierr.Unauthenticated(fmt.Errorf("invalid credentials"))
	}

	var accessToken, refreshToken string
	err = as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// opportunistically drop expired sessions for this user
		existing, ftErr := as.userTokenRepo.GetByUserID(ctx, tx, user.ID)
		if ftErr != nil {
			return fmt.Errorf("Failed to check user tokens: %w", ftErr)
		}
		expired := []uuid.UUID{}
		for _, token := range existing {
			if token.ExpiresAt.Before(time.Now()) {
				expired = append(expired, token.ID)
			}
		}
		if err := as.userTokenRepo.DeleteByIDs(ctx, tx, expired); err != nil {
			return fmt.Errorf("Failed to delete expired tokens: %w", err)
		}

		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return fmt.Errorf("Failed to generate access token: %w", genErr)
		}
		accessToken = tok
		refreshToken = uuid.New().String()
		userToken := &types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: refreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, userToken); err != nil {
			return fmt.Errorf("Failed to create user token: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", "", apierr.Internal(err)
	}
	return accessToken, refreshToken, nil
}

func (as *authService) Refresh(ctx context.Context) (string, string, error) {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.RefreshToken == "" {
		return "", "", apierr.Unauthenticated(fmt.Errorf("no refresh token in context"))
	}

	var accessToken, newRefreshToken string
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := as.userTokenRepo.GetByRefreshToken(ctx, tx, rd.RefreshToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apierr.Unauthenticated(fmt.Errorf("unknown refresh token"))
			}
			return fmt.Errorf("Failed to fetch refresh token: %w", err)
		}
		if existing.ExpiresAt.Before(time.Now()) {
			if dErr := as.userTokenRepo.DeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); dErr != nil {
				return fmt.Errorf("Failed to delete expired token: %w", dErr)
			}
			return apierr.Unauthenticated(fmt.Errorf("refresh token expired"))
		}
		user, err := as.userRepo.GetByID(ctx, tx, existing.UserID)
		if err != nil {
			return fmt.Errorf("Failed to load user for refresh: %w", err)
		}
		tok, genErr := as.generateAccessToken(user)
		if genErr != nil {
			return fmt.Errorf("Failed to generate access token: %w", genErr)
		}
		accessToken = tok
		newRefreshToken = uuid.New().String()
		replacement := &types.UserToken{
			ID:           uuid.New(),
			UserID:       user.ID,
			AccessToken:  accessToken,
			RefreshToken: newRefreshToken,
			ExpiresAt:    time.Now().Add(as.refreshTTL),
		}
		if _, err := as.userTokenRepo.Create(ctx, tx, replacement); err != nil {
			return fmt.Errorf("Failed to create replacement token: %w", err)
		}
		if err := as.userTokenRepo.DeleteByIDs(ctx, tx, []uuid.UUID{existing.ID}); err != nil {
			return fmt.Errorf("Failed to remove old refresh token: %w", err)
		}
		return nil
	})
	if err != nil {
		var ae *apierr.Error
		if errors.As(err, &ae) {
			return "", "", ae
		}
		return "", "", apierr.Internal(err)
	}
	return accessToken, newRefreshToken, nil
}

func (as *authService) Logout(ctx context.Context) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil || rd.TokenString == "" {
		return apierr.Unauthenticated(fmt.Errorf("no session in context"))
	}
	return as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := as.userTokenRepo.GetByAccessToken(ctx, tx, rd.TokenString)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return fmt.Errorf("Failed to find user token: %w", err)
		}
		if err := as.userTokenRepo.DeleteByIDs(ctx, tx, []uuid.UUID{token.ID}); err != nil {
			return fmt.Errorf("Failed to delete user token: %w", err)
		}
		return nil
	})
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

// SetContextFromToken verifies the JWT and loads the backing session,
// stashing both in requestdata for downstream handlers.
func (as *authService) SetContextFromToken(ctx context.Context, tokenString string) (context.Context, error) {
	if tokenString == "" {
		return ctx, apierr.Unauthenticated(fmt.Errorf("missing token"))
	}
	parsedToken, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(as.jwtSecretKey), nil
	})
	if err != nil {
		return ctx, apierr.Unauthenticated(fmt.Errorf("Failed to parse token: %w", err))
	}
	claims, ok := parsedToken.Claims.(*JWTClaims)
	if !ok || !parsedToken.Valid {
		return ctx, apierr.Unauthenticated(fmt.Errorf("invalid or expired token"))
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return ctx, apierr.Unauthenticated(fmt.Errorf("invalid user id in token: %w", err))
	}

	session, err := as.userTokenRepo.GetByAccessToken(ctx, nil, tokenString)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ctx, apierr.Unauthenticated(fmt.Errorf("session revoked"))
		}
		return ctx, apierr.Internal(fmt.Errorf("Failed to load session: %w", err))
	}

	rd := &requestdata.RequestData{
		TokenString:  tokenString,
		RefreshToken: session.RefreshToken,
		UserID:       userID,
		SessionID:    session.ID,
	}
	return requestdata.WithRequestData(ctx, rd), nil
}

func (as *authService) AccessTTL() time.Duration {
	return as.accessTTL
}
