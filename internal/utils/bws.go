package utils

import (
	"errors"
	"fmt"
	"strings"
	"time"

	sdk "github.com/bitwarden/sdk-go"
)

//--------------------------------------------------------------------
// Constants
//--------------------------------------------------------------------

// Retry parameters for Bitwarden API calls.
const (
	bwsMaxRetries     = 5
	bwsInitialBackoff = 500 * time.Millisecond
)

//--------------------------------------------------------------------
// Client wrapper
//--------------------------------------------------------------------

// BWSSecretsClient wraps an authenticated Bitwarden SDK client.
type BWSSecretsClient struct {
	bw    sdk.BitwardenClientInterface
	orgID string
}

// NewBWSSecretsClient logs in with accessToken and returns a ready-to-use
// client scoped to orgID. Logins are retried with exponential backoff on
// HTTP 429.
func NewBWSSecretsClient(accessToken, orgID string) (*BWSSecretsClient, error) {
	if strings.TrimSpace(accessToken) == "" {
		return nil, errors.New("bitwarden access token is empty")
	}
	if strings.TrimSpace(orgID) == "" {
		return nil, errors.New("bitwarden organization id is empty")
	}

	// Create Bitwarden client (nil URLs → defaults).
	bw, err := sdk.NewBitwardenClient(nil, nil)
	if err != nil {
		return nil, fmt.Errorf("initialising Bitwarden SDK client: %w", err)
	}

	backoff := bwsInitialBackoff
	for attempt := 1; attempt <= bwsMaxRetries; attempt++ {
		err = bw.AccessTokenLogin(accessToken, nil)
		if err == nil {
			return &BWSSecretsClient{bw: bw, orgID: orgID}, nil
		}

		// sdk-go does not expose a typed error with StatusCode, so
		// string-match is the simplest option.
		if !strings.Contains(err.Error(), "429") &&
			!strings.Contains(err.Error(), "Too Many Requests") {
			bw.Close()
			return nil, fmt.Errorf("Bitwarden access-token login failed: %w", err)
		}

		if attempt == bwsMaxRetries {
			bw.Close()
			return nil, fmt.Errorf("Bitwarden access-token login failed after %d attempts: %w", bwsMaxRetries, err)
		}

		Logger.WithError(err).Warnf("Bitwarden rate limited login, retrying in %v", backoff)
		time.Sleep(backoff)
		backoff *= 2
	}

	bw.Close()
	return nil, errors.New("unexpected error in NewBWSSecretsClient")
}

// Close releases resources held by the underlying SDK client.
func (c *BWSSecretsClient) Close() {
	if c != nil && c.bw != nil {
		c.bw.Close()
	}
}

// GetBWSSecrets retrieves all key/value secrets belonging to the Bitwarden
// project named projectName.
func (c *BWSSecretsClient) GetBWSSecrets(projectName string) (map[string]string, error) {
	if strings.TrimSpace(projectName) == "" {
		return nil, errors.New("projectName must not be empty")
	}

	projectsResp, err := c.bw.Projects().List(c.orgID)
	if err != nil {
		return nil, fmt.Errorf("listing Bitwarden projects: %w", err)
	}

	var projectID string
	for _, p := range projectsResp.Data {
		if strings.EqualFold(p.Name, projectName) {
			projectID = p.ID
			break
		}
	}
	if projectID == "" {
		return nil, fmt.Errorf("project %q not found in organisation %s", projectName, c.orgID)
	}

	syncResp, err := c.bw.Secrets().Sync(c.orgID, nil)
	if err != nil {
		return nil, fmt.Errorf("syncing Bitwarden secrets: %w", err)
	}

	out := make(map[string]string)
	for _, s := range syncResp.Secrets {
		if s.ProjectID != nil && *s.ProjectID == projectID {
			out[s.Key] = s.Value
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no secrets found for project %q", projectName)
	}
	return out, nil
}
