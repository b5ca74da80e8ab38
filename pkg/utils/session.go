package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// GenerateSessionID derives a session id from a client fingerprint. The id
// rotates every hour.
func GenerateSessionID(fingerprint string) string {
	hash := md5.Sum([]byte(fingerprint + fmt.Sprintf("%d", time.Now().Unix()/3600)))
	return hex.EncodeToString(hash[:])[:16]
}

// MD5Hash returns the hex MD5 of input
func MD5Hash(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}

// GenerateRequestID returns a random request id
func GenerateRequestID() string {
	return uuid.NewString()
}

// ValidateSessionID accepts fingerprint ids (16 hex chars) and client
// supplied UUIDs
func ValidateSessionID(sessionID string) bool {
	if len(sessionID) == 16 {
		_, err := hex.DecodeString(sessionID)
		return err == nil
	}
	_, err := uuid.Parse(strings.TrimSpace(sessionID))
	return err == nil
}
