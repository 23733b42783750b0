package yandex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// iamClient exchanges the long-lived OAuth token for short-lived IAM tokens
// and caches the result until shortly before expiry.
type iamClient struct {
	httpc *http.Client
	oauth string

	mu     sync.Mutex
	cached string
	expiry time.Time
}

func newIamClient(oauth string) *iamClient {
	return &iamClient{
		httpc: &http.Client{Timeout: 20 * time.Second},
		oauth: oauth,
	}
}

func (c *iamClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cached != "" && time.Now().Before(c.expiry.Add(-time.Minute)) {
		return c.cached, nil
	}

	payload, _ := json.Marshal(map[string]string{"yandexPassportOauthToken": c.oauth})
	req, err := http.NewRequestWithContext(ctx, "POST",
		"https://iam.api.cloud.yandex.net/iam/v1/tokens", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("iam token exchange: status %d", resp.StatusCode)
	}

	var out struct {
		IamToken string `json:"iamToken"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.IamToken == "" {
		return "", fmt.Errorf("iam token exchange: empty token")
	}
	c.cached = out.IamToken
	c.expiry = time.Now().Add(11 * time.Hour)
	return c.cached, nil
}
