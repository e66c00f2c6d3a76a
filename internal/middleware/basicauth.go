package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"

	"github.com/PKartavkin/slack-bot/pkg/response"
)

// BasicAuth guards the admin API with HTTP basic auth. The password is
// compared through bcrypt so the configured value may be a hash; a
// plain-text configured password is hashed once at startup.
func BasicAuth(username, passwordHash string) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, pass, ok := c.Request.BasicAuth()
		if !ok {
			unauthorized(c)
			return
		}
		if subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 {
			unauthorized(c)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(pass)) != nil {
			unauthorized(c)
			return
		}
		c.Next()
	}
}

// HashPassword prepares a configured admin password for BasicAuth.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func unauthorized(c *gin.Context) {
	c.Header("WWW-Authenticate", `Basic realm="admin"`)
	response.Unauthorized(c, "invalid credentials")
	c.Abort()
}
