package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookclub/api/internal/auth"
	"github.com/bookclub/api/internal/services"
	"github.com/bookclub/api/pkg/logger"
	"github.com/bookclub/api/pkg/utils"
	"github.com/graphql-go/graphql"
)

// RequestInfo identifies the HTTP request behind a GraphQL operation.
type RequestInfo struct {
	IP        string
	RequestID string
}

type requestInfoKey struct{}

func WithRequestInfo(ctx context.Context, info RequestInfo) context.Context {
	return context.WithValue(ctx, requestInfoKey{}, info)
}

func requestInfo(ctx context.Context) RequestInfo {
	info, _ := ctx.Value(requestInfoKey{}).(RequestInfo)
	return info
}

var errInternal = errors.New("internal server error")

// requireAuth rejects anonymous callers before next touches any store.
func requireAuth(next graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		if _, err := auth.RequireUser(p.Context); err != nil {
			return nil, err
		}
		return next(p)
	}
}

// fail keeps client errors visible and replaces everything else with a
// generic message after logging it.
func fail(ctx context.Context, action string, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidRating),
		errors.Is(err, services.ErrUnknownReading),
		errors.Is(err, utils.ErrInvalidCursor),
		errors.Is(err, errBadArgument):
		return err
	}

	if user := auth.UserLabel(ctx); user != "" {
		logger.ErrorWithUser(user, action, err, map[string]interface{}{"request_id": requestInfo(ctx).RequestID})
	} else {
		logger.Error(action, err, map[string]interface{}{"request_id": requestInfo(ctx).RequestID})
	}
	return errInternal
}

var errBadArgument = errors.New("invalid argument")

func argUint(args map[string]interface{}, key string) (uint, error) {
	v, ok := args[key].(int)
	if !ok {
		return 0, fmt.Errorf("%w: %s is required", errBadArgument, key)
	}
	if v < 0 {
		return 0, fmt.Errorf("%w: %s must not be negative", errBadArgument, key)
	}
	return uint(v), nil
}

func argOptionalUint(args map[string]interface{}, key string) (*uint, error) {
	if _, ok := args[key]; !ok || args[key] == nil {
		return nil, nil
	}
	v, err := argUint(args, key)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func argUintList(args map[string]interface{}, key string) ([]uint, error) {
	raw, _ := args[key].([]interface{})
	ids := make([]uint, 0, len(raw))
	for _, item := range raw {
		v, ok := item.(int)
		if !ok || v < 0 {
			return nil, fmt.Errorf("%w: %s must be a list of ids", errBadArgument, key)
		}
		ids = append(ids, uint(v))
	}
	return ids, nil
}

func argString(args map[string]interface{}, key string) *string {
	v, ok := args[key].(string)
	if !ok {
		return nil
	}
	return &v
}

func argBool(args map[string]interface{}, key string) *bool {
	v, ok := args[key].(bool)
	if !ok {
		return nil
	}
	return &v
}

func argInt(args map[string]interface{}, key string, fallback int) int {
	if v, ok := args[key].(int); ok {
		return v
	}
	return fallback
}

func argObject(args map[string]interface{}, key string) map[string]interface{} {
	v, _ := args[key].(map[string]interface{})
	if v == nil {
		return map[string]interface{}{}
	}
	return v
}

// argTime parses epoch milliseconds or RFC 3339.
func argTime(args map[string]interface{}, key string) (*time.Time, error) {
	raw := argString(args, key)
	if raw == nil {
		return nil, nil
	}
	return utils.ParseCursor(*raw)
}

func userIDForAudit(ctx context.Context) *uint {
	id, ok := auth.CurrentUserID(ctx)
	if !ok {
		return nil
	}
	return &id
}
