package api

import (
	"context"
	"net/http"
	"net/url"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
	"github.com/sourcefinder/sourcefinder/client/internal/types"
)

// ListUsers returns all accounts, newest first.
func ListUsers(ctx context.Context, hc HTTPClient, baseURL, token string) ([]types.UserRecord, error) {
	var users []types.UserRecord
	if err := Do(ctx, hc, baseURL, Request{
		Operation: "list users",
		Method:    http.MethodGet,
		Path:      "/admin/users",
		Token:     token,
	}, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUser registers an account on behalf of an administrator.
func CreateUser(ctx context.Context, hc HTTPClient, baseURL, token string, req types.CreateUserRequest) (*types.UserRecord, error) {
	if req.Role == "" {
		req.Role = types.RoleUser
	}
	if err := validateCreateUser(req); err != nil {
		return nil, apierrors.NewValidationError("create user", err.Error())
	}
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var u types.UserRecord
	if err := Do(ctx, hc, baseURL, Request{
		Operation:   "create user",
		Method:      http.MethodPost,
		Path:        "/admin/users",
		Body:        body,
		ContentType: "application/json",
		Token:       token,
	}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// UpdateUser applies a partial update to an account.
func UpdateUser(ctx context.Context, hc HTTPClient, baseURL, token, userID string, req types.UpdateUserRequest) (*types.UserRecord, error) {
	if err := types.ValidateRequired(userID, "user id"); err != nil {
		return nil, apierrors.NewValidationError("update user", err.Error())
	}
	if req.Role != nil {
		if err := types.ValidateRole(*req.Role); err != nil {
			return nil, apierrors.NewValidationError("update user", err.Error())
		}
	}
	body, err := jsonBody(req)
	if err != nil {
		return nil, err
	}
	var u types.UserRecord
	if err := Do(ctx, hc, baseURL, Request{
		Operation:   "update user",
		Method:      http.MethodPatch,
		Path:        "/admin/users/" + url.PathEscape(userID),
		Body:        body,
		ContentType: "application/json",
		Token:       token,
	}, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func validateCreateUser(req types.CreateUserRequest) error {
	if err := types.ValidateCredentials(types.Credentials{Email: req.Email, Password: req.Password}); err != nil {
		return err
	}
	return types.ValidateRole(req.Role)
}
