// Package credentials resolves Payload login credentials and the base URL
// from explicit values, the process environment, and a .env file.
package credentials

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"github.com/goliatone/go-payload-sync/internal/rest"
)

const (
	EnvPathVar     = "ENV_PATH"
	DefaultEnvFile = ".env"

	EmailVar    = "PAYLOADCMS_EMAIL"
	PasswordVar = "PAYLOADCMS_PASSWORD"
	URLVar      = "PAYLOADCMS_URL"
)

// Config names the variables consulted for each value, in priority order,
// and the .env file to read. An empty EnvFile falls back to $ENV_PATH and
// then to ".env"; only an explicitly named file must exist.
type Config struct {
	EnvFile      string
	EmailVars    []string
	PasswordVars []string
	URLVars      []string
}

// DefaultConfig uses the PAYLOADCMS_* variable names.
func DefaultConfig() Config {
	return Config{
		EmailVars:    []string{EmailVar},
		PasswordVars: []string{PasswordVar},
		URLVars:      []string{URLVar},
	}
}

// Credentials are the resolved values.
type Credentials struct {
	Email    string
	Password string
	BaseURL  string
}

// LoginRequest builds a login request for collection.
func (c Credentials) LoginRequest(collection string) rest.LoginRequest {
	return rest.LoginRequest{Collection: collection, Email: c.Email, Password: c.Password}
}

// Require fails with a *rest.AuthenticationError naming the first missing
// value.
func (c Credentials) Require(cfg Config) error {
	if strings.TrimSpace(c.Email) == "" {
		return &rest.AuthenticationError{Reason: fmt.Sprintf("email not provided (set %s)", strings.Join(cfg.EmailVars, " or "))}
	}
	if c.Password == "" {
		return &rest.AuthenticationError{Reason: fmt.Sprintf("password not provided (set %s)", strings.Join(cfg.PasswordVars, " or "))}
	}
	return nil
}

// Resolve fills every empty field of explicit from the environment and then
// from the .env file. The process environment wins over the file. The .env
// file is read without modifying the process environment.
func Resolve(cfg Config, explicit Credentials) (Credentials, error) {
	fileValues, err := readEnvFile(cfg.EnvFile)
	if err != nil {
		return Credentials{}, err
	}
	lookup := func(names []string) string {
		for _, name := range names {
			if value, ok := os.LookupEnv(name); ok && strings.TrimSpace(value) != "" {
				return strings.TrimSpace(value)
			}
		}
		for _, name := range names {
			if value := strings.TrimSpace(fileValues[name]); value != "" {
				return value
			}
		}
		return ""
	}

	out := explicit
	if strings.TrimSpace(out.Email) == "" {
		out.Email = lookup(cfg.EmailVars)
	}
	if out.Password == "" {
		out.Password = lookup(cfg.PasswordVars)
	}
	if strings.TrimSpace(out.BaseURL) == "" {
		out.BaseURL = lookup(cfg.URLVars)
	}
	return out, nil
}

func readEnvFile(explicit string) (map[string]string, error) {
	path := strings.TrimSpace(explicit)
	required := path != ""
	if path == "" {
		if fromEnv := strings.TrimSpace(os.Getenv(EnvPathVar)); fromEnv != "" {
			path = fromEnv
			required = true
		} else {
			path = DefaultEnvFile
		}
	}

	values, err := godotenv.Read(path)
	if err != nil {
		if !required && errors.Is(err, fs.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("payload credentials: read %s: %w", path, err)
	}
	return values, nil
}
