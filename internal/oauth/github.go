// Package oauth implements the GitHub OAuth bridge: code exchange,
// profile fetch and the verified-email fallback lookup.
package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
)

var (
	// ErrNotConfigured means the GitHub app credentials are missing.
	ErrNotConfigured = errors.New("GitHub OAuth configuration is missing")

	// ErrExchange means GitHub rejected the authorization code.
	ErrExchange = errors.New("failed to get access token")

	// ErrProfile means the profile fetch against the API failed.
	ErrProfile = errors.New("failed to fetch GitHub profile")
)

// Profile is the subset of the GitHub user we care about.
type Profile struct {
	ID       string
	Username string
	Avatar   string
	Email    string
}

// Bridge abstracts the provider so the orchestrator can be tested with a
// double.
type Bridge interface {
	Exchange(ctx context.Context, code, codeVerifier string) (string, error)
	FetchProfile(ctx context.Context, accessToken string) (*Profile, error)
	Configured() error
}

// GithubBridge talks to the real GitHub endpoints.
type GithubBridge struct {
	ClientID     string
	ClientSecret string

	// Overridable in tests
	OAuthURL string
	APIURL   string

	HTTP *http.Client
}

func NewGithub(clientID, clientSecret string) *GithubBridge {
	return &GithubBridge{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		OAuthURL:     "https://github.com",
		APIURL:       "https://api.github.com",
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (g *GithubBridge) Configured() error {
	if g.ClientID == "" || g.ClientSecret == "" {
		return ErrNotConfigured
	}

	return nil
}

// Exchange trades an authorization code (plus optional PKCE verifier) for
// an access token.
func (g *GithubBridge) Exchange(ctx context.Context, code, codeVerifier string) (string, error) {
	if err := g.Configured(); err != nil {
		return "", err
	}

	payload := map[string]string{
		"client_id":     g.ClientID,
		"client_secret": g.ClientSecret,
		"code":          code,
	}

	if codeVerifier != "" {
		payload["code_verifier"] = codeVerifier
	}

	body, _ := json.Marshal(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.OAuthURL+"/login/oauth/access_token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w, %v", ErrExchange, err)
	}
	defer resp.Body.Close()

	var data struct {
		AccessToken string `json:"access_token"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("%w, %v", ErrExchange, err)
	}

	if data.AccessToken == "" {
		return "", ErrExchange
	}

	return data.AccessToken, nil
}

// FetchProfile returns the authenticated user. GitHub omits the email for
// users who keep it private, in that case the verified primary address is
// looked up through the emails endpoint.
func (g *GithubBridge) FetchProfile(ctx context.Context, accessToken string) (*Profile, error) {
	var user struct {
		ID        int64  `json:"id"`
		Login     string `json:"login"`
		AvatarURL string `json:"avatar_url"`
		Email     string `json:"email"`
	}

	if err := g.get(ctx, "/user", accessToken, &user); err != nil {
		return nil, err
	}

	p := &Profile{
		ID:       strconv.FormatInt(user.ID, 10),
		Username: user.Login,
		Avatar:   user.AvatarURL,
		Email:    user.Email,
	}

	if p.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}

		if err := g.get(ctx, "/user/emails", accessToken, &emails); err != nil {
			return nil, err
		}

		for _, e := range emails {
			if e.Primary && e.Verified {
				p.Email = e.Email
				break
			}
		}
	}

	return p, nil
}

func (g *GithubBridge) get(ctx context.Context, path, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.APIURL+path, nil)
	if err != nil {
		return err
	}

	req.Header.Set("Authorization", "token "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := g.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w, %v", ErrProfile, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return fmt.Errorf("%w, status %d", ErrProfile, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
