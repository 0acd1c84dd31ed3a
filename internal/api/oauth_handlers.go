package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/gomarble/admetrics/internal/domain"
	"github.com/gomarble/admetrics/internal/pkg/httputil"
	"github.com/gomarble/admetrics/internal/pkg/logger"
)

var googleScopes = []string{
	"https://www.googleapis.com/auth/adwords",
	"https://www.googleapis.com/auth/userinfo.email",
}

var metaScopes = []string{"ads_read", "ads_management", "business_management"}

// oauthState round-trips the initiating workspace through the provider.
type oauthState struct {
	WorkspaceID string `json:"workspaceId"`
}

func encodeState(workspaceID string) string {
	raw, _ := json.Marshal(oauthState{WorkspaceID: workspaceID})
	return base64.StdEncoding.EncodeToString(raw)
}

func decodeState(s string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return "", fmt.Errorf("decoding state: %w", err)
	}
	var st oauthState
	if err := json.Unmarshal(raw, &st); err != nil {
		return "", fmt.Errorf("parsing state: %w", err)
	}
	if st.WorkspaceID == "" {
		return "", fmt.Errorf("state carries no workspace")
	}
	return st.WorkspaceID, nil
}

func (s *Server) googleOAuthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     s.cfg.Google.ClientID,
		ClientSecret: s.cfg.Google.ClientSecret,
		RedirectURL:  s.cfg.Google.RedirectURI,
		Scopes:       googleScopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  s.cfg.Google.AuthURL,
			TokenURL: s.cfg.Google.TokenURL,
		},
	}
}

func (s *Server) handleGoogleInitiate(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Google.ClientID == "" || s.cfg.Google.RedirectURI == "" {
		httputil.Error(w, http.StatusInternalServerError, "Google OAuth not configured")
		return
	}

	// access_type=offline with prompt=consent forces a refresh token on
	// every connect, not only the first.
	authURL := s.googleOAuthConfig().AuthCodeURL(encodeState(WorkspaceID(r)),
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"))

	httputil.OK(w, map[string]string{"url": authURL})
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		httputil.BadRequest(w, "Authorization code missing")
		return
	}
	workspaceID, err := decodeState(r.URL.Query().Get("state"))
	if err != nil {
		httputil.BadRequest(w, "invalid state parameter")
		return
	}

	ctx := context.WithValue(r.Context(), oauth2.HTTPClient, s.httpClient)
	token, err := s.googleOAuthConfig().Exchange(ctx, code)
	if err != nil {
		logger.Error("google code exchange failed", "error", err.Error())
		httputil.BadRequest(w, "Failed to exchange authorization code")
		return
	}

	email, name, err := s.fetchGoogleUserInfo(r, token.AccessToken)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	encAccess, err := s.vault.Encrypt(token.AccessToken)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}
	var encRefresh string
	if token.RefreshToken != "" {
		encRefresh, err = s.vault.Encrypt(token.RefreshToken)
		if err != nil {
			httputil.InternalError(w, err)
			return
		}
	}

	var expiresAt *time.Time
	if !token.Expiry.IsZero() {
		e := token.Expiry
		expiresAt = &e
	}

	var scopes []string
	if sc, ok := token.Extra("scope").(string); ok && sc != "" {
		scopes = strings.Split(sc, " ")
	}

	integration := &domain.Integration{
		WorkspaceID:    workspaceID,
		Platform:       domain.PlatformGoogle,
		AccountID:      email,
		AccountName:    firstNonEmpty(name, email),
		AccessToken:    encAccess,
		RefreshToken:   encRefresh,
		TokenExpiresAt: expiresAt,
		Scopes:         scopes,
	}
	if err := s.integrations.Upsert(r.Context(), integration); err != nil {
		httputil.InternalError(w, err)
		return
	}

	logger.Info("google integration connected",
		"workspace_id", workspaceID,
		"integration_id", integration.ID)
	s.redirectSuccess(w, r, domain.PlatformGoogle)
}

func (s *Server) fetchGoogleUserInfo(r *http.Request, accessToken string) (email, name string, err error) {
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, s.googleUserInfoURL, nil)
	if err != nil {
		return "", "", err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetching google account info: %w", err)
	}
	defer resp.Body.Close()

	var info struct {
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("parsing google account info: %w", err)
	}
	if info.Email == "" {
		return "", "", fmt.Errorf("google account info carries no email")
	}
	return info.Email, info.Name, nil
}

func (s *Server) handleMetaInitiate(w http.ResponseWriter, r *http.Request) {
	if s.cfg.Meta.AppID == "" || s.cfg.Meta.RedirectURI == "" {
		httputil.Error(w, http.StatusInternalServerError, "Meta OAuth not configured")
		return
	}

	params := url.Values{}
	params.Set("client_id", s.cfg.Meta.AppID)
	params.Set("redirect_uri", s.cfg.Meta.RedirectURI)
	params.Set("scope", strings.Join(metaScopes, ","))
	params.Set("state", encodeState(WorkspaceID(r)))

	httputil.OK(w, map[string]string{"url": s.metaAuthURL + "?" + params.Encode()})
}

func (s *Server) handleMetaCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	if code == "" {
		httputil.BadRequest(w, "Authorization code missing")
		return
	}
	workspaceID, err := decodeState(r.URL.Query().Get("state"))
	if err != nil {
		httputil.BadRequest(w, "invalid state parameter")
		return
	}

	accessToken, err := s.exchangeMetaCode(r, code)
	if err != nil {
		logger.Error("meta code exchange failed", "error", err.Error())
		httputil.BadRequest(w, "Failed to exchange authorization code")
		return
	}

	userID, userName, err := s.fetchMetaUserInfo(r, accessToken)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	encAccess, err := s.vault.Encrypt(accessToken)
	if err != nil {
		httputil.InternalError(w, err)
		return
	}

	// Meta user tokens are long-lived; no refresh token and no tracked
	// expiry. An expired token surfaces as an auth error on the next sync.
	integration := &domain.Integration{
		WorkspaceID: workspaceID,
		Platform:    domain.PlatformMeta,
		AccountID:   userID,
		AccountName: firstNonEmpty(userName, userID),
		AccessToken: encAccess,
	}
	if err := s.integrations.Upsert(r.Context(), integration); err != nil {
		httputil.InternalError(w, err)
		return
	}

	logger.Info("meta integration connected",
		"workspace_id", workspaceID,
		"integration_id", integration.ID)
	s.redirectSuccess(w, r, domain.PlatformMeta)
}

func (s *Server) exchangeMetaCode(r *http.Request, code string) (string, error) {
	params := url.Values{}
	params.Set("client_id", s.cfg.Meta.AppID)
	params.Set("client_secret", s.cfg.Meta.AppSecret)
	params.Set("redirect_uri", s.cfg.Meta.RedirectURI)
	params.Set("code", code)

	tokenURL := s.cfg.Meta.GraphURL() + "/oauth/access_token?" + params.Encode()
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, tokenURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token endpoint status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", fmt.Errorf("token endpoint returned no access_token")
	}
	return out.AccessToken, nil
}

func (s *Server) fetchMetaUserInfo(r *http.Request, accessToken string) (id, name string, err error) {
	meURL := s.cfg.Meta.GraphURL() + "/me?access_token=" + url.QueryEscape(accessToken)
	req, err := http.NewRequestWithContext(r.Context(), http.MethodGet, meURL, nil)
	if err != nil {
		return "", "", err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("fetching meta account info: %w", err)
	}
	defer resp.Body.Close()

	var info struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return "", "", fmt.Errorf("parsing meta account info: %w", err)
	}
	if info.ID == "" {
		return "", "", fmt.Errorf("meta account info carries no id")
	}
	return info.ID, info.Name, nil
}

func (s *Server) redirectSuccess(w http.ResponseWriter, r *http.Request, platform domain.Platform) {
	dest := fmt.Sprintf("%s/dashboard/integrations?success=%s", s.cfg.Frontend.URL, platform)
	http.Redirect(w, r, dest, http.StatusFound)
}

func firstNonEmpty(a, b string) string {
	if a != "" {
		return a
	}
	return b
}
