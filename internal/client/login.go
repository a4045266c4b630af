package client

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

type loginSource struct {
	ctx      context.Context
	url      string
	hc       *http.Client
	user     string
	password string
}

// PasswordTokenSource logs in at baseURL/auth/login whenever the cached
// token is missing or expired.
func PasswordTokenSource(ctx context.Context, baseURL, user, password string) oauth2.TokenSource {
	hc, ok := ctx.Value(oauth2.HTTPClient).(*http.Client)
	if !ok {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return oauth2.ReuseTokenSource(nil, &loginSource{
		ctx:      ctx,
		url:      strings.TrimSuffix(baseURL, "/") + "/auth/login",
		hc:       hc,
		user:     user,
		password: password,
	})
}

func (s *loginSource) Token() (*oauth2.Token, error) {
	buf, _ := json.Marshal(map[string]string{"username": s.user, "password": s.password})
	req, err := http.NewRequestWithContext(s.ctx, http.MethodPost, s.url, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	res, err := s.hc.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return nil, decodeError(res)
	}
	var out struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, err
	}
	tok := &oauth2.Token{AccessToken: out.AccessToken, TokenType: out.TokenType}
	if out.ExpiresIn > 0 {
		tok.Expiry = time.Now().Add(time.Duration(out.ExpiresIn) * time.Second)
	}
	return tok, nil
}

// StaticToken wraps an already issued bearer token.
func StaticToken(token string) oauth2.TokenSource {
	return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"})
}
