package service

import (
	"errors"
	"time"

	"kb-assistant-be/internal/config"
	"kb-assistant-be/internal/entity"
	"kb-assistant-be/internal/pkg/logger"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

// AdminService issues tokens for the single configured operator account
// and exposes the log and audit readers behind it.
type AdminService struct {
	auth  config.AuthConfig
	log   logger.ILogger
	audit *AuditTrail
}

func NewAdminService(auth config.AuthConfig, log logger.ILogger, audit *AuditTrail) *AdminService {
	return &AdminService{auth: auth, log: log, audit: audit}
}

// Login verifies credentials against the configured admin account and
// returns a signed JWT.
func (s *AdminService) Login(email, password string) (string, error) {
	if s.auth.AdminEmail == "" || email != s.auth.AdminEmail {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.auth.AdminPasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	claims := jwt.MapClaims{
		"email": email,
		"exp":   time.Now().Add(24 * time.Hour).Unix(),
		"iat":   time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.auth.JWTSecret))
	if err != nil {
		return "", err
	}

	s.log.Info("admin", "admin logged in", map[string]interface{}{"email": email})
	return signed, nil
}

// Logs pages through the structured log file.
func (s *AdminService) Logs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return s.log.GetLogs(level, limit, offset)
}

// Audit returns the most recent content-change records.
func (s *AdminService) Audit(limit int) []entity.AuditRecord {
	return s.audit.List(limit)
}
