// Package middleware holds the Fiber middleware shared by the HTTP routes.
package middleware

import (
	"errors"
	"fmt"
	"strings"

	"github.com/amirasaad/wallet/pkg/config"
	"github.com/amirasaad/wallet/pkg/domain/account"
	accountsvc "github.com/amirasaad/wallet/pkg/service/account"
	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	// TokenKey is the Locals key the verified *jwt.Token is stored under.
	TokenKey = "user"
	// AccountKey is the Locals key of the caller's *account.Account.
	AccountKey = "account"
)

var (
	ErrMissingSubject = errors.New("token has no valid subject")
	ErrMissingEmail   = errors.New("token has no email claim")
)

// JwtProtected verifies the bearer token with the HS256 secret in cfg.
func JwtProtected(cfg *config.Jwt) fiber.Handler {
	var secret string
	if cfg != nil {
		secret = cfg.Secret
	}
	return jwtware.New(jwtware.Config{
		SigningKey:   jwtware.SigningKey{JWTAlg: jwtware.HS256, Key: []byte(secret)},
		ContextKey:   TokenKey,
		ErrorHandler: jwtError,
	})
}

// RequireAccount provisions the wallet account of the token subject on
// first sight and stores it under AccountKey. It must run after JwtProtected.
func RequireAccount(accounts *accountsvc.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, ok := c.Locals(TokenKey).(*jwt.Token)
		if !ok {
			return unauthorized(c, "missing user context")
		}
		id, email, err := Identity(token)
		if err != nil {
			return unauthorized(c, err.Error())
		}
		acc, err := accounts.Ensure(c.UserContext(), id, email)
		if err != nil {
			return fmt.Errorf("failed to provision account: %w", err)
		}
		c.Locals(AccountKey, acc)
		return c.Next()
	}
}

// CurrentAccount returns the account RequireAccount stored for this request.
func CurrentAccount(c *fiber.Ctx) (*account.Account, bool) {
	acc, ok := c.Locals(AccountKey).(*account.Account)
	return acc, ok && acc != nil
}

// Identity extracts the account id (sub) and email claims from token.
func Identity(token *jwt.Token) (uuid.UUID, string, error) {
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return uuid.Nil, "", ErrMissingSubject
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return uuid.Nil, "", ErrMissingSubject
	}
	id, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, "", ErrMissingSubject
	}
	email, _ := claims["email"].(string)
	if strings.TrimSpace(email) == "" {
		return uuid.Nil, "", ErrMissingEmail
	}
	return id, email, nil
}

func jwtError(c *fiber.Ctx, err error) error {
	if errors.Is(err, jwtware.ErrJWTMissingOrMalformed) {
		return problem(c, fiber.StatusBadRequest, "Bad Request", err.Error())
	}
	return unauthorized(c, "Invalid or expired JWT")
}

func unauthorized(c *fiber.Ctx, detail string) error {
	return problem(c, fiber.StatusUnauthorized, "Unauthorized", detail)
}

func problem(c *fiber.Ctx, status int, title, detail string) error {
	return c.Status(status).JSON(fiber.Map{
		"type":     "about:blank",
		"title":    title,
		"status":   status,
		"detail":   detail,
		"instance": c.OriginalURL(),
	}, "application/problem+json")
}
