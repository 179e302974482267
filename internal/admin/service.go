package admin

import (
	"context"
	"fmt"
	"strings"
	"time"

	pkgauth "github.com/angelmondragon/staffstore-backend/pkg/auth"
	"github.com/angelmondragon/staffstore-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/staffstore-backend/pkg/errors"
	"github.com/angelmondragon/staffstore-backend/pkg/logger"
	"github.com/angelmondragon/staffstore-backend/pkg/security"
	"github.com/angelmondragon/staffstore-backend/pkg/types"
)

const invalidCredentialsMessage = "Invalid credentials"

// Service authenticates the admin panel.
type Service interface {
	Enabled() bool
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Authorize(ctx context.Context, bearer string) (*Principal, error)
}

type service struct {
	cfg   config.AdminConfig
	plain string
	hash  string
	logg  *logger.Logger
	now   func() time.Time
}

// NewService prepares admin authentication. A plain password is hashed once
// here; when no JWT secret is configured a random one is generated, so
// tokens do not survive a restart.
func NewService(cfg config.AdminConfig, pwCfg config.PasswordConfig, logg *logger.Logger) (Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	s := &service{
		cfg:   cfg,
		plain: strings.TrimSpace(cfg.Password),
		hash:  strings.TrimSpace(cfg.PasswordHash),
		logg:  logg,
		now:   time.Now,
	}
	if !cfg.Enabled() {
		return s, nil
	}

	if s.hash != "" {
		if _, err := security.ParseHash(s.hash); err != nil {
			return nil, fmt.Errorf("admin password hash: %w", err)
		}
	} else {
		hash, err := security.HashPassword(s.plain, pwCfg)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		s.hash = hash
	}
	if strings.TrimSpace(s.cfg.JWTSecret) == "" {
		secret, err := security.RandomSecret(32)
		if err != nil {
			return nil, err
		}
		s.cfg.JWTSecret = secret
	}
	return s, nil
}

func (s *service) Enabled() bool {
	return s.hash != ""
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	if !s.Enabled() {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Admin access is not configured")
	}

	ok, err := s.verifyHash(req.Password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify admin password")
	}
	if !ok {
		s.logg.Warn(ctx, "admin.login_failed")
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	token, expiresAt, err := pkgauth.MintAdminToken(s.cfg, s.now().UTC(), pkgauth.RoleAdmin)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint admin token")
	}
	s.logg.Info(ctx, "admin.login")
	return &LoginResponse{Envelope: types.Success(), Token: token, ExpiresAt: expiresAt}, nil
}

// Authorize accepts a token minted by Login or the shared secret itself. The
// secret form serves scripted callers that skip the login round trip; nothing
// derived from the secret is accepted.
func (s *service) Authorize(ctx context.Context, bearer string) (*Principal, error) {
	bearer = strings.TrimSpace(bearer)
	if !s.Enabled() || bearer == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
	}

	if claims, err := pkgauth.ParseAdminToken(s.cfg, bearer); err == nil {
		return &Principal{Subject: claims.Subject, Method: MethodToken}, nil
	}

	ok, err := s.verifySecret(bearer)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify admin secret")
	}
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "Unauthorized")
	}
	return &Principal{Subject: pkgauth.RoleAdmin, Method: MethodSecret}, nil
}

func (s *service) verifyHash(candidate string) (bool, error) {
	candidate = strings.TrimSpace(candidate)
	if candidate == "" {
		return false, nil
	}
	return security.VerifyPassword(candidate, s.hash)
}

// verifySecret skips argon2 on the per-request path when the plain secret is known.
func (s *service) verifySecret(candidate string) (bool, error) {
	if s.plain != "" {
		return security.ConstantTimeEqual(strings.TrimSpace(candidate), s.plain), nil
	}
	return s.verifyHash(candidate)
}
