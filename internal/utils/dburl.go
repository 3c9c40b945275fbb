package utils

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var isolatedRolePattern = regexp.MustCompile(`^[a-z0-9_-]+$`)

// IsolatedRoleName is the per-run Postgres role for a CI runner and run number.
func IsolatedRoleName(runnerID, runNumber string) (string, error) {
	runnerID, runNumber = strings.TrimSpace(runnerID), strings.TrimSpace(runNumber)
	if runnerID == "" || runNumber == "" {
		return "", errors.New("UNIQUE_RUNNER_ID and UNIQUE_RUN_NUMBER are required for an isolated schema")
	}
	role := strings.ToLower(runnerID + "-" + runNumber)
	if !isolatedRolePattern.MatchString(role) {
		return "", fmt.Errorf("isolated role %q contains characters outside [a-z0-9_-]", role)
	}
	return role, nil
}

// WithIsolatedRole returns dbURL connecting as role, keeping any password.
// Scheme, host, database and query parameters are left untouched.
func WithIsolatedRole(dbURL, role string) (string, error) {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "", fmt.Errorf("invalid DB URL: %w", err)
	}
	if u.Scheme != "postgres" && u.Scheme != "postgresql" {
		return "", fmt.Errorf("invalid DB URL: unsupported scheme %q", u.Scheme)
	}

	if password, ok := u.User.Password(); ok {
		u.User = url.UserPassword(role, password)
	} else {
		u.User = url.User(role)
	}
	return u.String(), nil
}

// RedactDBURL hides the password of dbURL so the result can be logged.
func RedactDBURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "<unparseable DB URL>"
	}
	return u.Redacted()
}
