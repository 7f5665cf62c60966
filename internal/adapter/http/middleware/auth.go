package middleware

import (
	"net/http"
	"strings"

	"yangu_payments/pkg"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

// Context keys populated by RequireAuth.
const (
	CtxUserID    = "userID"
	CtxUserRole  = "userRole"
	CtxUserName  = "userName"
	CtxUserEmail = "userEmail"
	CtxUserPhone = "userPhone"
)

// AuthClaims is the token shape issued by the storefront's identity service.
// Identity itself is an external collaborator; this middleware is only the
// boundary that extracts the payer/admin capability from its tokens.
type AuthClaims struct {
	Role  string `json:"role"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
	jwt.RegisteredClaims
}

// RequireAuth validates the bearer token and stores the caller's identity in
// the gin context.
func RequireAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			abortUnauthorized(c, "Missing bearer token")
			return
		}
		tokenStr := strings.TrimPrefix(header, "Bearer ")

		claims := &AuthClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxUserName, claims.Name)
		c.Set(CtxUserEmail, claims.Email)
		c.Set(CtxUserPhone, claims.Phone)
		c.Next()
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString(CtxUserRole) != "admin" {
			appErr := pkg.NewDomainErrorSimple("FORBIDDEN", "Admin role required", http.StatusForbidden)
			c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToHTTPError())
			return
		}
		c.Next()
	}
}

// IsAdmin reports whether the authenticated caller holds the admin role.
func IsAdmin(c *gin.Context) bool {
	return c.GetString(CtxUserRole) == "admin"
}

func abortUnauthorized(c *gin.Context, msg string) {
	appErr := pkg.NewDomainErrorSimple("UNAUTHORIZED", msg, http.StatusUnauthorized)
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToHTTPError())
}
