package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/service"
)

// Client calls the upstream game-login API that issues playable URLs.
type Client struct {
	http *http.Client
	log  *logrus.Entry
}

func NewClient() *Client {
	return &Client{
		http: &http.Client{},
		log:  logrus.WithField("component", "provider"),
	}
}

// GameLogin exchanges a player credential for a game URL. roomId goes on
// the wire as a string, the provider rejects the integer form.
func (c *Client) GameLogin(ctx context.Context, site *config.Site, login service.GameLogin) (string, error) {
	payload := map[string]any{
		"uid":      login.UID,
		"token":    login.Token,
		"gameId":   login.GameID,
		"roomId":   strconv.Itoa(login.RoomID),
		"lobbyUrl": login.LobbyURL,
		"domain":   login.Domain,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, site.Timeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, site.ProviderAPIURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	if resp.StatusCode != http.StatusOK {
		c.log.WithFields(logrus.Fields{
			"site":   site.Prefix,
			"status": resp.StatusCode,
		}).Warn("game login rejected")
		return "", fmt.Errorf("game login: upstream status %d", resp.StatusCode)
	}

	var parsed struct {
		URL string `json:"url"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("game login: decode response: %w", err)
	}
	if parsed.URL == "" {
		return "", fmt.Errorf("game login: empty url in response")
	}
	return parsed.URL, nil
}
