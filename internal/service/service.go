// Package service exposes the ledger engine over Connect RPC.
//
// Handlers validate request shape with go-playground/validator, resolve the caller from the
// context populated by middleware.RequireAuth, and translate engine errors with
// toConnectError. Business rules live in the ledger package.
package service

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/splitcircle/internal/apperr"
	"github.com/mmynk/splitcircle/internal/ledger"
	"github.com/mmynk/splitcircle/internal/middleware"
	"github.com/mmynk/splitcircle/internal/models"
)

var errUnauthenticated = errors.New("authentication required")

// newValidator returns a validator that reports json field names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// caller returns the authenticated user ID.
func caller(ctx context.Context) (string, error) {
	uid := middleware.GetUserID(ctx)
	if uid == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return uid, nil
}

// callerProfile returns the caller's directory profile.
func callerProfile(ctx context.Context, l *ledger.Ledger) (models.UserProfile, error) {
	uid, err := caller(ctx)
	if err != nil {
		return models.UserProfile{}, err
	}
	p, err := l.Profile(ctx, uid, middleware.GetEmail(ctx))
	if err != nil {
		return models.UserProfile{}, toConnectError(err)
	}
	return p, nil
}

// resolveCategory maps a request category to its stored name. Empty names are left to the
// ledger default and custom categories without a color get the Other color.
func resolveCategory(name, color string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil
	}
	if color == "" {
		color = models.CategoryOther.Color
	}
	c, err := models.ResolveCategory(name, color)
	if err != nil {
		return "", toConnectError(apperr.Validation("%s", err.Error()))
	}
	return c.Name, nil
}

func dateOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return t.UTC()
}
