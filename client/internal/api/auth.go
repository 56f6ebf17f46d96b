package api

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/sourcefinder/sourcefinder/client/internal/errors"
	"github.com/sourcefinder/sourcefinder/client/internal/types"
)

var errMissingToken = errors.New("response carried no access_token")

// Login exchanges credentials for an access token.
func Login(ctx context.Context, hc HTTPClient, baseURL string, creds types.Credentials) (*types.TokenResponse, error) {
	return exchangeCredentials(ctx, hc, baseURL, "login", "/auth/login", creds)
}

// Register creates an account and returns its first access token.
func Register(ctx context.Context, hc HTTPClient, baseURL string, creds types.Credentials) (*types.TokenResponse, error) {
	return exchangeCredentials(ctx, hc, baseURL, "register", "/auth/register", creds)
}

func exchangeCredentials(ctx context.Context, hc HTTPClient, baseURL, op, path string, creds types.Credentials) (*types.TokenResponse, error) {
	if err := types.ValidateCredentials(creds); err != nil {
		return nil, apierrors.NewValidationError(op, err.Error())
	}
	body, err := jsonBody(creds)
	if err != nil {
		return nil, err
	}
	var tr types.TokenResponse
	if err := Do(ctx, hc, baseURL, Request{
		Operation:   op,
		Method:      http.MethodPost,
		Path:        path,
		Body:        body,
		ContentType: "application/json",
	}, &tr); err != nil {
		return nil, err
	}
	if tr.AccessToken == "" {
		return nil, apierrors.NewDecodeError(op, errMissingToken)
	}
	return &tr, nil
}

// Me resolves the identity behind token.
func Me(ctx context.Context, hc HTTPClient, baseURL, token string) (*types.Identity, error) {
	var id types.Identity
	if err := Do(ctx, hc, baseURL, Request{
		Operation: "get identity",
		Method:    http.MethodGet,
		Path:      "/users/me",
		Token:     token,
	}, &id); err != nil {
		return nil, err
	}
	return &id, nil
}
