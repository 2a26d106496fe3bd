package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/goliatone/go-payload-sync/pkg/interfaces"
)

// DefaultUserCollection is the auth-enabled collection Payload ships with.
const DefaultUserCollection = "users"

// LoginRequest carries the credentials for an auth-enabled collection.
type LoginRequest struct {
	Collection string
	Email      string
	Password   string
}

// LoginResult is the decoded login response.
type LoginResult struct {
	Token string
	User  interfaces.Document
	Exp   int64
	Raw   interfaces.Document
}

// Login authenticates against {collection}/login and stores the returned
// token on the client. Every failure is an *AuthenticationError.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := strings.TrimSpace(req.Email)
	if email == "" || req.Password == "" {
		return nil, &AuthenticationError{Reason: "email and password are required"}
	}
	collection := strings.TrimSpace(req.Collection)
	if collection == "" {
		collection = DefaultUserCollection
	}

	body, err := json.Marshal(map[string]string{"email": email, "password": req.Password})
	if err != nil {
		return nil, &AuthenticationError{Reason: "encode credentials", Err: err}
	}

	var out map[string]any
	if err := c.do(ctx, http.MethodPost, c.endpoint(collection, "login"), nil, bytes.NewReader(body), jsonContentType, &out); err != nil {
		reason := "login request failed"
		var httpErr *HTTPError
		if errors.As(err, &httpErr) {
			reason = fmt.Sprintf("login rejected with status %d", httpErr.StatusCode)
		}
		return nil, &AuthenticationError{Reason: reason, Err: err}
	}

	token, _ := out["token"].(string)
	if strings.TrimSpace(token) == "" {
		return nil, &AuthenticationError{Reason: "login response did not include a token"}
	}
	c.SetToken(token)

	result := &LoginResult{Token: token, Raw: out}
	if user, ok := out["user"].(map[string]any); ok {
		result.User = user
	}
	if exp, ok := out["exp"].(json.Number); ok {
		result.Exp, _ = exp.Int64()
	}
	return result, nil
}
