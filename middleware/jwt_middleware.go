package middleware

import (
	"context"
	"log"
	"net/http"
	"net/url"
	"time"

	"github.com/opoquest/opoquest-api/config"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/jwks"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

// CustomClaims carries the extra claims our Auth0 tenant adds to tokens.
type CustomClaims struct {
	Nickname string `json:"nickname"`
}

func (c *CustomClaims) Validate(ctx context.Context) error {
	return nil
}

// EnsureValidToken validates bearer tokens against the Auth0 tenant.
// Credentials are optional here: routes that need an identity enforce it
// via WithUser, which lets public routes (billing webhook, health) share
// the same mux.
func EnsureValidToken() func(next http.Handler) http.Handler {
	issuerURL, err := url.Parse("https://" + config.Env.Auth0Domain + "/")
	if err != nil {
		log.Fatalf("Failed to parse the issuer url: %v", err)
	}

	provider := jwks.NewCachingProvider(issuerURL, 5*time.Minute)

	jwtValidator, err := validator.New(
		provider.KeyFunc,
		validator.RS256,
		issuerURL.String(),
		[]string{config.Env.Auth0Audience},
		validator.WithCustomClaims(func() validator.CustomClaims {
			return &CustomClaims{}
		}),
	)
	if err != nil {
		log.Fatalf("Failed to set up the jwt validator: %v", err)
	}

	errorHandler := func(w http.ResponseWriter, r *http.Request, err error) {
		log.Printf("Encountered error while validating JWT: %v", err)
		http.Error(w, "Failed to validate JWT", http.StatusUnauthorized)
	}

	m := jwtmiddleware.New(
		jwtValidator.ValidateToken,
		jwtmiddleware.WithCredentialsOptional(true),
		jwtmiddleware.WithErrorHandler(errorHandler),
	)

	return m.CheckJWT
}
