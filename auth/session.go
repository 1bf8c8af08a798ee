package auth

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/m2gi-davilori/ecom/models"
)

type sessionInput struct {
	Login string `json:"login"`
}

// POST /auth/session
//
// Opens a storefront session for a login (or a fresh guest login when
// none is given) and makes sure the login has a cart, so the client's
// initial cart fetch finds one.
func CreateSession(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input sessionInput
		_ = c.ShouldBindJSON(&input)

		login := input.Login
		if login == "" {
			login = "guest-" + uuid.NewString()
		}

		var cart models.Cart
		if err := db.Where(models.Cart{UserID: login}).FirstOrCreate(&cart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cart"})
			return
		}

		expiresAt := time.Now().Add(24 * time.Hour)
		token, err := issueSessionToken(login, expiresAt)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Token generation failed"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"login":      login,
			"token":      token,
			"expires_at": expiresAt,
		})
	}
}

func issueSessionToken(login string, expiresAt time.Time) (string, error) {
	claims := jwt.MapClaims{
		"login": login,
		"exp":   expiresAt.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
