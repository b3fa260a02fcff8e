package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"referral-backend/config"
	"referral-backend/internal/delivery/http/response"
	"referral-backend/internal/domain"
	"referral-backend/pkg/auth"
	"referral-backend/pkg/security"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// AuthMiddleware validates the identity provider token. Subject and email are
// trusted; the role is read from the profile by each usecase.
func AuthMiddleware(jwksProvider *auth.Provider, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := bearerToken(c)
		if tokenString == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "Authorization header or auth_token cookie required")
			return
		}

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
			switch token.Method.(type) {
			case *jwt.SigningMethodHMAC:
				if cfg.SupabaseJWTSecret == "" {
					return nil, fmt.Errorf("HS256 token received but SUPABASE_JWT_SECRET is not configured")
				}
				return []byte(cfg.SupabaseJWTSecret), nil
			case *jwt.SigningMethodRSA:
				if jwksProvider == nil {
					return nil, fmt.Errorf("RS256 token received but JWKS is not configured")
				}
				return jwksProvider.KeyFunc(token)
			}
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}, jwt.WithValidMethods([]string{"HS256", "RS256"}), jwt.WithExpirationRequired())

		if err != nil || !token.Valid {
			security.DefaultLogger().LogAccessDenied(c.Request.Context(), security.EventUnauthorizedAccess,
				"", c.ClientIP(), c.GetString("RequestID"), c.FullPath())
			response.AbortWithError(c, http.StatusUnauthorized, "Invalid token")
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.AbortWithError(c, http.StatusUnauthorized, "Invalid claims")
			return
		}
		sub, _ := claims["sub"].(string)
		email, _ := claims["email"].(string)
		if sub == "" {
			response.AbortWithError(c, http.StatusUnauthorized, "Token has no subject")
			return
		}

		isAdmin := cfg.IsAdminEmail(email)
		c.Set(string(domain.KeyUserID), sub)
		c.Set(string(domain.KeyUserEmail), email)
		c.Set(string(domain.KeyIsAdmin), isAdmin)

		// Usecases read the caller from the request context
		ctx := context.WithValue(c.Request.Context(), domain.KeyUserID, sub)
		ctx = context.WithValue(ctx, domain.KeyUserEmail, email)
		ctx = context.WithValue(ctx, domain.KeyIsAdmin, isAdmin)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireAdmin must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(string(domain.KeyIsAdmin)) {
			security.DefaultLogger().LogAccessDenied(c.Request.Context(), security.EventForbiddenAccess,
				c.GetString(string(domain.KeyUserID)), c.ClientIP(), c.GetString("RequestID"), c.FullPath())
			response.AbortWithError(c, http.StatusForbidden, "Administrator access required")
			return
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	if header := c.GetHeader("Authorization"); header != "" {
		if after, ok := strings.CutPrefix(header, "Bearer "); ok {
			return strings.TrimSpace(after)
		}
		return ""
	}
	if cookie, err := c.Cookie("auth_token"); err == nil {
		return cookie
	}
	return ""
}
