package middleware

import (
	"context"
	"log"
	"net/http"

	"github.com/opoquest/opoquest-api/config"
	"github.com/opoquest/opoquest-api/models"

	jwtmiddleware "github.com/auth0/go-jwt-middleware/v2"
	"github.com/auth0/go-jwt-middleware/v2/validator"
)

type contextKey string

const userKey = contextKey("user")

// WithUser ensures the Auth0 user exists in the DB and attaches it to
// context. First-time users are created with status pending, which keeps
// them out of practice routes until an admin approves them.
func WithUser(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := r.Context().Value(jwtmiddleware.ContextKey{}).(*validator.ValidatedClaims)
		if !ok || claims.RegisteredClaims.Subject == "" {
			http.Error(w, "No Auth0 subject found", http.StatusUnauthorized)
			return
		}

		auth0ID := claims.RegisteredClaims.Subject
		nickname := ""
		if customClaims, ok := claims.CustomClaims.(*CustomClaims); ok && customClaims != nil {
			nickname = customClaims.Nickname
		}

		var user models.User
		result := config.Database.Where("auth0_id = ?", auth0ID).First(&user)

		if result.Error != nil {
			// User does not exist, create a new one as pending
			user = models.User{
				Auth0ID:  auth0ID,
				Nickname: nickname,
				Role:     models.RoleStudent,
				Status:   models.UserPending,
			}
			createResult := config.Database.Create(&user)
			if createResult.Error != nil {
				http.Error(w, "Failed to create user", http.StatusInternalServerError)
				log.Println("Database creation error:", createResult.Error)
				return
			}
			log.Printf("Created new pending user: %s\n", user.Nickname)
		} else if nickname != "" && user.Nickname != nickname {
			user.Nickname = nickname
			saveResult := config.Database.Save(&user)
			if saveResult.Error != nil {
				http.Error(w, "Failed to update user", http.StatusInternalServerError)
				log.Println("Database update error:", saveResult.Error)
				return
			}
		}

		ctx := context.WithValue(r.Context(), userKey, &user)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// RequireApproved rejects users still pending or rejected by the approval
// workflow.
func RequireApproved(next http.HandlerFunc) http.HandlerFunc {
	return WithUser(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r)
		if !ok || !user.IsApproved() {
			http.Error(w, "Account awaiting approval", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects everyone without the admin role.
func RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return WithUser(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r)
		if !ok || !user.IsAdmin() {
			http.Error(w, "Admin only", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFromContext returns the user WithUser attached to the request.
func UserFromContext(r *http.Request) (*models.User, bool) {
	user, ok := r.Context().Value(userKey).(*models.User)
	return user, ok
}
