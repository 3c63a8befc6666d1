package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignedURLSigner mints and verifies download tokens for report files. A
// token binds a job ID and a storage path to an expiry, so report downloads
// need no session while still being scoped to one file.
type SignedURLSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewSignedURLSigner builds a signer. A non-positive TTL defaults to 24h.
func NewSignedURLSigner(secret string, ttl time.Duration) *SignedURLSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SignedURLSigner{secret: []byte(secret), ttl: ttl}
}

// Generate returns a token for the given job and file path together with
// its expiry.
func (s *SignedURLSigner) Generate(jobID, relPath string) (string, time.Time, error) {
	if jobID == "" || relPath == "" {
		return "", time.Time{}, fmt.Errorf("job id and path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	encodedPath := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	sig := s.sign(jobID, exp, encodedPath)
	return strings.Join([]string{jobID, exp, encodedPath, sig}, "."), expiresAt, nil
}

// Parse verifies a token and returns what it encodes. With allowExpired set
// the expiry check is skipped, which cleanup paths use to resolve stale
// tokens back to file paths.
func (s *SignedURLSigner) Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error) {
	parts := strings.Split(token, ".")
	if len(parts) != 4 {
		return "", "", time.Time{}, fmt.Errorf("malformed token")
	}
	jobID, exp, encodedPath, sig := parts[0], parts[1], parts[2], parts[3]

	expected := s.sign(jobID, exp, encodedPath)
	if !hmac.Equal([]byte(expected), []byte(sig)) {
		return "", "", time.Time{}, fmt.Errorf("invalid token signature")
	}

	rawPath, err := base64.RawURLEncoding.DecodeString(encodedPath)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("decode token path: %w", err)
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", "", time.Time{}, fmt.Errorf("invalid token expiry")
	}
	expiresAt = time.Unix(expUnix, 0)
	if !allowExpired && time.Now().After(expiresAt) {
		return "", "", time.Time{}, fmt.Errorf("token expired")
	}
	return jobID, string(rawPath), expiresAt, nil
}

func (s *SignedURLSigner) sign(jobID, exp, encodedPath string) string {
	mac := hmac.New(sha256.New, s.secret)
	fmt.Fprintf(mac, "%s|%s|%s", jobID, exp, encodedPath)
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
