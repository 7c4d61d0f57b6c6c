package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pricepilot/pricepilot-backend/internal/entity"
	"github.com/pricepilot/pricepilot-backend/internal/identity"
	"github.com/pricepilot/pricepilot-backend/internal/record"
	user "github.com/pricepilot/pricepilot-backend/internal/users"
	pkgauth "github.com/pricepilot/pricepilot-backend/pkg/auth"
	"github.com/pricepilot/pricepilot-backend/pkg/auth/session"
	"github.com/pricepilot/pricepilot-backend/pkg/config"
	pkgerrors "github.com/pricepilot/pricepilot-backend/pkg/errors"
	"github.com/pricepilot/pricepilot-backend/pkg/security"
)

// ProviderLocal marks accounts created with an email and password.
const ProviderLocal = "local"

// Service exposes account registration and session lifecycle operations.
type Service interface {
	Register(ctx context.Context, input RegisterInput) (*Result, error)
	Login(ctx context.Context, input LoginInput) (*Result, error)
	OAuthLogin(ctx context.Context, input OAuthInput) (*Result, error)
	Refresh(ctx context.Context, accessToken, refreshToken string) (*Result, error)
	Logout(ctx context.Context, accessID string) error
}

// RegisterInput holds the validated payload to create a local account.
type RegisterInput struct {
	Email    string
	Password string
	FullName string
}

// LoginInput holds local account credentials.
type LoginInput struct {
	Email    string
	Password string
}

// OAuthInput holds the profile asserted by an external identity provider.
// Provider verification happens upstream; this service only materializes the
// account.
type OAuthInput struct {
	Provider string
	Subject  string
	Email    string
	FullName string
	Picture  string
}

// Result carries the authenticated user and the issued token pair.
type Result struct {
	User         record.Record `json:"user"`
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token"`
}

type sessionManager interface {
	Generate(ctx context.Context, accessID string) (string, error)
	Rotate(ctx context.Context, oldAccessID, provided string) (string, string, error)
	Revoke(ctx context.Context, accessID string) error
}

type service struct {
	records  *entity.Client
	sessions sessionManager
	jwtCfg   config.JWTConfig
	pwCfg    config.PasswordConfig
	now      func() time.Time
}

// NewService constructs an auth service instance.
func NewService(records *entity.Client, sessions sessionManager, jwtCfg config.JWTConfig, pwCfg config.PasswordConfig) (Service, error) {
	if records == nil {
		return nil, fmt.Errorf("user entity client required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session manager required")
	}
	return &service{
		records:  records,
		sessions: sessions,
		jwtCfg:   jwtCfg,
		pwCfg:    pwCfg,
		now:      time.Now,
	}, nil
}

func (s *service) Register(ctx context.Context, input RegisterInput) (*Result, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}
	if len(input.Password) < 8 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "password must be at least 8 characters")
	}
	fullName := strings.TrimSpace(input.FullName)
	if fullName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "full name is required")
	}

	if err := s.ensureEmailFree(ctx, email); err != nil {
		return nil, err
	}

	hash, err := security.HashPassword(input.Password, s.pwCfg)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	created, _, err := s.records.Create(ctx, record.Record{
		"email":         email,
		"full_name":     fullName,
		"provider":      ProviderLocal,
		"password_hash": hash,
	}, identity.Actor{})
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, created)
}

func (s *service) Login(ctx context.Context, input LoginInput) (*Result, error) {
	email := normalizeEmail(input.Email)
	rec, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, invalidCredentials()
	}

	hash := rec.String("password_hash")
	if hash == "" {
		return nil, invalidCredentials()
	}
	ok, err := security.VerifyPassword(input.Password, hash)
	if err != nil || !ok {
		return nil, invalidCredentials()
	}
	return s.issueTokens(ctx, rec)
}

// OAuthLogin materializes an externally asserted profile: an account matched
// by email is refreshed, a new one is created without credential material.
func (s *service) OAuthLogin(ctx context.Context, input OAuthInput) (*Result, error) {
	provider := strings.TrimSpace(strings.ToLower(input.Provider))
	if provider == "" || provider == ProviderLocal {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "a valid external provider is required")
	}
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "email is required")
	}

	rec, err := s.findByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		created, _, err := s.records.Create(ctx, record.Record{
			"email":            email,
			"full_name":        strings.TrimSpace(input.FullName),
			"picture":          strings.TrimSpace(input.Picture),
			"provider":         provider,
			"provider_subject": strings.TrimSpace(input.Subject),
		}, identity.Actor{})
		if err != nil {
			return nil, err
		}
		return s.issueTokens(ctx, created)
	}

	actor := identity.New(rec.ID(), rec.String("full_name"))
	partial := record.Record{
		"provider":         provider,
		"provider_subject": strings.TrimSpace(input.Subject),
	}
	if picture := strings.TrimSpace(input.Picture); picture != "" {
		partial["picture"] = picture
	}
	updated, _, err := s.records.Update(ctx, rec.ID(), partial, actor)
	if err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, updated)
}

// Refresh rotates the session behind an expired or expiring access token.
func (s *service) Refresh(ctx context.Context, accessToken, refreshToken string) (*Result, error) {
	claims, err := pkgauth.ParseAccessTokenAllowExpired(s.jwtCfg, accessToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid access token")
	}

	newAccessID, newRefresh, err := s.sessions.Rotate(ctx, claims.ID, refreshToken)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid refresh token")
	}

	rec, err := s.records.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:      claims.UserID,
		DisplayName: rec.String("full_name"),
		JTI:         newAccessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	return &Result{User: user.Sanitize(rec), AccessToken: token, RefreshToken: newRefresh}, nil
}

func (s *service) Logout(ctx context.Context, accessID string) error {
	if strings.TrimSpace(accessID) == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "no session to revoke")
	}
	if err := s.sessions.Revoke(ctx, accessID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "revoke session")
	}
	return nil
}

func (s *service) issueTokens(ctx context.Context, rec record.Record) (*Result, error) {
	accessID := session.NewAccessID()
	token, err := pkgauth.MintAccessToken(s.jwtCfg, s.now(), pkgauth.AccessTokenPayload{
		UserID:      rec.ID(),
		DisplayName: rec.String("full_name"),
		JTI:         accessID,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint access token")
	}
	refresh, err := s.sessions.Generate(ctx, accessID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create session")
	}
	return &Result{User: user.Sanitize(rec), AccessToken: token, RefreshToken: refresh}, nil
}

func (s *service) findByEmail(ctx context.Context, email string) (record.Record, error) {
	if email == "" {
		return nil, nil
	}
	matched, err := s.records.Filter(ctx, map[string]any{"email": email})
	if err != nil {
		return nil, err
	}
	if len(matched) == 0 {
		return nil, nil
	}
	return matched[0], nil
}

func (s *service) ensureEmailFree(ctx context.Context, email string) error {
	existing, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if existing != nil {
		return pkgerrors.New(pkgerrors.CodeConflict, "an account with this email already exists")
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func invalidCredentials() error {
	return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid email or password")
}
