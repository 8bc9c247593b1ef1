package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/MicahParks/jwkset"
	"github.com/MicahParks/keyfunc/v3"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"checklistapi/utils"
)

// Context keys set by AuthMiddleware.
const (
	ContextKeyClaims = "claims"
	ContextKeyEmail  = "email"
)

// TokenVerifier checks a bearer token and returns its claims.
type TokenVerifier interface {
	Verify(token string) (*utils.Claims, error)
}

// HMACVerifier accepts HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret string
	issuer string
}

func NewHMACVerifier(secret, issuer string) *HMACVerifier {
	return &HMACVerifier{secret: secret, issuer: issuer}
}

func (v *HMACVerifier) Verify(token string) (*utils.Claims, error) {
	return utils.VerifyJWTTokenWithSecret(token, v.secret, v.issuer)
}

// JWKSVerifier accepts RS256 tokens whose keys are published as a JWK Set.
type JWKSVerifier struct {
	jwks   keyfunc.Keyfunc
	issuer string
}

// NewJWKSVerifier fetches the key set at jwksURL and refreshes it in the
// background until ctx is cancelled. Startup does not fail when the first
// fetch does.
func NewJWKSVerifier(ctx context.Context, jwksURL, issuer string, refreshInterval time.Duration) (*JWKSVerifier, error) {
	logger := utils.Logger().WithPrefix("jwks")

	storage, err := jwkset.NewStorageFromHTTP(jwksURL, jwkset.HTTPClientStorageOptions{
		Client:                    &http.Client{Timeout: 10 * time.Second},
		Ctx:                       ctx,
		NoErrorReturnFirstHTTPReq: true,
		RefreshInterval:           refreshInterval,
		RefreshErrorHandler: func(_ context.Context, err error) {
			logger.Error("JWKS refresh failed", "url", jwksURL, "err", err)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create JWKS storage: %w", err)
	}

	k, err := keyfunc.New(keyfunc.Options{Storage: storage})
	if err != nil {
		return nil, fmt.Errorf("failed to create keyfunc: %w", err)
	}

	return NewJWKSVerifierWithKeyfunc(k, issuer), nil
}

// NewJWKSVerifierWithKeyfunc wraps an existing keyfunc, e.g. one built from
// an in-memory key set.
func NewJWKSVerifierWithKeyfunc(k keyfunc.Keyfunc, issuer string) *JWKSVerifier {
	return &JWKSVerifier{jwks: k, issuer: issuer}
}

func (v *JWKSVerifier) Verify(tokenString string) (*utils.Claims, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &utils.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, v.jwks.Keyfunc, opts...)
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// AuthMiddleware rejects requests without a valid bearer token. Verified
// claims are stored on the context under ContextKeyClaims.
func AuthMiddleware(verifier TokenVerifier) gin.HandlerFunc {
	logger := utils.Logger().WithPrefix("auth")

	return func(c *gin.Context) {
		token := extractBearerToken(c)
		if token == "" {
			utils.UnauthorizedResponse(c, "Authorization token required")
			c.Abort()
			return
		}

		claims, err := verifier.Verify(token)
		if err != nil {
			logger.Debug("Token rejected", "err", err, "remote_addr", c.ClientIP())
			utils.UnauthorizedResponse(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextKeyClaims, claims)
		c.Set(ContextKeyEmail, claims.Email)

		c.Next()
	}
}

// ClaimsFromContext returns the verified claims, or nil when the request was
// not authenticated.
func ClaimsFromContext(c *gin.Context) *utils.Claims {
	value, exists := c.Get(ContextKeyClaims)
	if !exists {
		return nil
	}
	claims, _ := value.(*utils.Claims)
	return claims
}

func extractBearerToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
