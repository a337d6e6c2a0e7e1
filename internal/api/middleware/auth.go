package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

// TokenStore verifies a bearer token against a set of bcrypt hashes. The
// zero value has no tokens; Auth lets every request through when the store
// holds no hashes.
type TokenStore struct {
	hashes [][]byte
}

// NewTokenStore builds a TokenStore from a set of bcrypt hashes, typically
// loaded from configuration rather than hard-coded.
func NewTokenStore(hashes ...string) *TokenStore {
	ts := &TokenStore{hashes: make([][]byte, len(hashes))}
	for i, h := range hashes {
		ts.hashes[i] = []byte(h)
	}
	return ts
}

// HashToken bcrypt-hashes a plaintext bearer token for storage.
func HashToken(token string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func (ts *TokenStore) accepts(token string) bool {
	for _, h := range ts.hashes {
		if bcrypt.CompareHashAndPassword(h, []byte(token)) == nil {
			return true
		}
	}
	return false
}

// Auth requires a valid "Authorization: Bearer <token>" header, checked
// against ts. A nil or empty ts disables the check entirely (useful for
// local development).
func Auth(ts *TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ts == nil || len(ts.hashes) == 0 {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" || !ts.accepts(token) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing bearer token"})
			c.Abort()
			return
		}

		c.Next()
	}
}
