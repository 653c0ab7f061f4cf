package service

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/dchest/uniuri"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"github.com/endfieldpass/backend/internal/app/appconfig"
	"github.com/endfieldpass/backend/internal/model"
	"github.com/endfieldpass/backend/internal/pkg/gerr"
	"github.com/endfieldpass/backend/internal/repo"
)

const (
	CloudProviderGoogleDrive = "google_drive"
	CloudProviderYandexDisk  = "yandex_disk"
	CloudProviderURL         = "url"

	cloudSyncFolderName = "EndfieldPass"
	cloudSyncFileName   = "history-latest.json"

	directImportMaxBytes     = 5 * 1024 * 1024
	directImportMaxRedirects = 5
)

// syncProviders are the OAuth-backed providers; "url" is import-only and
// needs no connection.
var syncProviders = []string{CloudProviderGoogleDrive, CloudProviderYandexDisk}

var providerLabels = map[string]string{
	CloudProviderGoogleDrive: "Google Drive",
	CloudProviderYandexDisk:  "Yandex Disk",
	CloudProviderURL:         "Other (direct JSON URL)",
}

// ProviderStatus describes one provider on the connections endpoint.
type ProviderStatus struct {
	Provider   string `json:"provider"`
	Label      string `json:"label"`
	Configured bool   `json:"configured"`
	Connected  bool   `json:"connected"`
}

// CloudSyncResult reports where an exported snapshot landed.
type CloudSyncResult struct {
	Provider   string `json:"provider"`
	FolderName string `json:"folder_name"`
	FileName   string `json:"file_name"`
	FileID     string `json:"file_id,omitempty"`
	Path       string `json:"path,omitempty"`
	Location   string `json:"location,omitempty"`
}

// CloudService backs cloud history sync: OAuth connection lifecycle plus
// blob-level export/import against the provider's app folder. History
// payloads pass through the codec untouched, the providers are pure blob
// transports.
type CloudService struct {
	conf   *appconfig.Config
	auths  *repo.CloudAuthStore
	codec  *CodecService
	client *http.Client
}

func NewCloudService(conf *appconfig.Config, auths *repo.CloudAuthStore, codec *CodecService) *CloudService {
	return &CloudService{
		conf:  conf,
		auths: auths,
		codec: codec,
		client: &http.Client{
			Timeout: time.Minute,
		},
	}
}

func isSyncProvider(provider string) bool {
	for _, candidate := range syncProviders {
		if candidate == provider {
			return true
		}
	}
	return false
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func (s *CloudService) credentials(provider string) (clientID, clientSecret, scope string) {
	switch provider {
	case CloudProviderGoogleDrive:
		return s.conf.GoogleOAuthClientID, s.conf.GoogleOAuthClientSecret, s.conf.GoogleOAuthScope
	case CloudProviderYandexDisk:
		return s.conf.YandexOAuthClientID, s.conf.YandexOAuthClientSecret, s.conf.YandexOAuthScope
	}
	return "", "", ""
}

func (s *CloudService) configured(provider string) bool {
	clientID, clientSecret, _ := s.credentials(provider)
	return clientID != "" && clientSecret != ""
}

// Providers lists the sync providers with their connection state.
func (s *CloudService) Providers() []ProviderStatus {
	connected := map[string]struct{}{}
	for _, provider := range s.auths.Connected() {
		connected[provider] = struct{}{}
	}

	statuses := make([]ProviderStatus, 0, len(syncProviders))
	for _, provider := range syncProviders {
		_, isConnected := connected[provider]
		statuses = append(statuses, ProviderStatus{
			Provider:   provider,
			Label:      providerLabels[provider],
			Configured: s.configured(provider),
			Connected:  isConnected,
		})
	}
	return statuses
}

// redirectURI builds the OAuth callback URL from the configured external
// base URL.
func (s *CloudService) redirectURI(provider string) string {
	base := strings.TrimRight(s.conf.ExternalBaseURL, "/")
	if base == "" {
		base = "http://" + s.conf.ServiceAddress
	}
	return base + "/api/v1/cloud/" + provider + "/callback"
}

// AuthorizationURL starts the OAuth flow: issues a state nonce and builds the
// provider's authorization URL.
func (s *CloudService) AuthorizationURL(provider string) (authURL, state string, err error) {
	provider = normalizeProvider(provider)
	if !isSyncProvider(provider) {
		return "", "", gerr.ErrInvalidReq.Msg("unknown cloud provider: %s", provider)
	}
	if !s.configured(provider) {
		return "", "", gerr.ErrCloud.Msg("%s OAuth is not configured on this server", providerLabels[provider])
	}

	clientID, _, scope := s.credentials(provider)
	state = uniuri.NewLen(32)
	s.auths.PutState(state, provider)

	redirect := s.redirectURI(provider)
	switch provider {
	case CloudProviderGoogleDrive:
		query := url.Values{}
		query.Set("client_id", clientID)
		query.Set("redirect_uri", redirect)
		query.Set("response_type", "code")
		query.Set("scope", normalizeScope(scope, "https://www.googleapis.com/auth/drive.file"))
		query.Set("state", state)
		query.Set("access_type", "offline")
		query.Set("include_granted_scopes", "true")
		query.Set("prompt", "consent")
		return "https://accounts.google.com/o/oauth2/v2/auth?" + query.Encode(), state, nil
	case CloudProviderYandexDisk:
		query := url.Values{}
		query.Set("response_type", "code")
		query.Set("client_id", clientID)
		query.Set("redirect_uri", redirect)
		query.Set("state", state)
		query.Set("scope", normalizeScope(scope, "cloud_api:disk.app_folder"))
		query.Set("force_confirm", "yes")
		return "https://oauth.yandex.ru/authorize?" + query.Encode(), state, nil
	}
	return "", "", gerr.ErrInvalidReq.Msg("unknown cloud provider: %s", provider)
}

// normalizeScope collapses comma or space separated scope lists to the
// single-space form providers expect.
func normalizeScope(scope, fallback string) string {
	scope = strings.TrimSpace(scope)
	if scope == "" {
		scope = fallback
	}
	return strings.Join(strings.Fields(strings.ReplaceAll(scope, ",", " ")), " ")
}

// HandleCallback finishes the OAuth flow: verifies the state nonce and
// exchanges the authorization code for tokens.
func (s *CloudService) HandleCallback(ctx context.Context, provider, state, code, providerError string) error {
	provider = normalizeProvider(provider)
	if !isSyncProvider(provider) {
		return gerr.ErrInvalidReq.Msg("unknown cloud provider: %s", provider)
	}
	if providerError != "" {
		return gerr.ErrCloud.Msg("%s denied authorization: %s", providerLabels[provider], providerError)
	}
	if state == "" || !s.auths.ConsumeState(state, provider) {
		return gerr.ErrCloud.Msg("OAuth state check failed, restart the connection flow")
	}
	if code == "" {
		return gerr.ErrCloud.Msg("provider returned no authorization code")
	}

	token, err := s.exchangeCode(ctx, provider, code)
	if err != nil {
		return err
	}
	s.auths.Set(token)
	return nil
}

// Disconnect drops the stored provider tokens.
func (s *CloudService) Disconnect(provider string) error {
	provider = normalizeProvider(provider)
	if !isSyncProvider(provider) {
		return gerr.ErrInvalidReq.Msg("unknown cloud provider: %s", provider)
	}
	s.auths.Delete(provider)
	return nil
}

func (s *CloudService) tokenEndpoint(provider string) string {
	if provider == CloudProviderYandexDisk {
		return "https://oauth.yandex.ru/token"
	}
	return "https://oauth2.googleapis.com/token"
}

func (s *CloudService) exchangeCode(ctx context.Context, provider, code string) (*repo.CloudAuth, error) {
	clientID, clientSecret, _ := s.credentials(provider)
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)
	form.Set("redirect_uri", s.redirectURI(provider))

	return s.requestToken(ctx, provider, form, "")
}

func (s *CloudService) refreshToken(ctx context.Context, provider, refreshToken string) (*repo.CloudAuth, error) {
	if refreshToken == "" {
		return nil, gerr.ErrCloud.Msg("cloud session has expired, reconnect the provider")
	}
	clientID, clientSecret, _ := s.credentials(provider)
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", refreshToken)
	form.Set("client_id", clientID)
	form.Set("client_secret", clientSecret)

	return s.requestToken(ctx, provider, form, refreshToken)
}

// requestToken posts a token grant and normalizes the response. A refresh
// response without a refresh token keeps the previous one.
func (s *CloudService) requestToken(ctx context.Context, provider string, form url.Values, previousRefreshToken string) (*repo.CloudAuth, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenEndpoint(provider), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, errors.Wrap(err, "build token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, gerr.ErrCloud.Msg("token request to %s failed: %s", providerLabels[provider], err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, gerr.ErrCloud.Msg("failed to read token response from %s", providerLabels[provider])
	}
	if resp.StatusCode >= 300 {
		return nil, cloudHTTPError(resp.StatusCode, body, "provider rejected the token grant")
	}

	accessToken := strings.TrimSpace(gjson.GetBytes(body, "access_token").String())
	if accessToken == "" {
		return nil, gerr.ErrCloud.Msg("provider did not return an access token")
	}
	refreshToken := strings.TrimSpace(gjson.GetBytes(body, "refresh_token").String())
	if refreshToken == "" {
		refreshToken = previousRefreshToken
	}

	auth := &repo.CloudAuth{
		Provider:     provider,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}
	if expiresIn := gjson.GetBytes(body, "expires_in").Int(); expiresIn > 0 {
		auth.ExpiresAt = time.Now().Add(time.Duration(expiresIn) * time.Second)
	}
	return auth, nil
}

// accessToken returns a valid access token for a connected provider,
// refreshing a stale one transparently.
func (s *CloudService) accessToken(ctx context.Context, provider string) (string, error) {
	if !s.configured(provider) {
		return "", gerr.ErrCloud.Msg("%s OAuth is not configured on this server", providerLabels[provider])
	}

	auth, ok := s.auths.Get(provider)
	if !ok || auth.AccessToken == "" {
		return "", gerr.ErrCloud.Msg("connect %s first", providerLabels[provider])
	}
	if !auth.Expired() {
		return auth.AccessToken, nil
	}

	refreshed, err := s.refreshToken(ctx, provider, auth.RefreshToken)
	if err != nil {
		return "", err
	}
	s.auths.Set(refreshed)
	return refreshed.AccessToken, nil
}

// Export pushes the current history snapshot to the provider's sync folder.
func (s *CloudService) Export(ctx context.Context, provider string) (*CloudSyncResult, error) {
	provider = normalizeProvider(provider)
	if !isSyncProvider(provider) {
		return nil, gerr.ErrInvalidReq.Msg("cloud export is not supported for provider: %s", provider)
	}

	token, err := s.accessToken(ctx, provider)
	if err != nil {
		return nil, err
	}
	payload, err := s.codec.ExportPayload(ctx)
	if err != nil {
		return nil, err
	}
	blob, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "encode export payload")
	}

	switch provider {
	case CloudProviderGoogleDrive:
		return s.googleUpload(ctx, token, blob)
	case CloudProviderYandexDisk:
		return s.yandexUpload(ctx, token, blob)
	}
	return nil, gerr.ErrInvalidReq.Msg("cloud export is not supported for provider: %s", provider)
}

// Import pulls a snapshot from the provider's sync folder (or a direct URL)
// and feeds it through the history import codec.
func (s *CloudService) Import(ctx context.Context, provider, remoteRef string) (*model.ImportResult, error) {
	provider = normalizeProvider(provider)

	var (
		blob []byte
		err  error
	)
	switch {
	case provider == CloudProviderURL:
		blob, err = s.downloadDirect(ctx, remoteRef)
	case isSyncProvider(provider):
		var token string
		token, err = s.accessToken(ctx, provider)
		if err == nil {
			if provider == CloudProviderGoogleDrive {
				blob, err = s.googleDownload(ctx, token)
			} else {
				blob, err = s.yandexDownload(ctx, token)
			}
		}
	default:
		return nil, gerr.ErrInvalidReq.Msg("unknown cloud provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}

	return s.codec.ImportPayload(ctx, blob)
}

// downloadDirect fetches a snapshot from a user-supplied URL. Every hop of
// the redirect chain is validated against private-network targets.
func (s *CloudService) downloadDirect(ctx context.Context, remoteRef string) ([]byte, error) {
	remoteRef = strings.TrimSpace(remoteRef)
	if remoteRef == "" {
		return nil, gerr.ErrInvalidReq.Msg("direct import requires a JSON URL")
	}
	if err := s.validateDirectURL(remoteRef); err != nil {
		return nil, err
	}

	client := &http.Client{
		Timeout: time.Minute,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) > directImportMaxRedirects {
				return errors.New("too many redirects")
			}
			return s.validateDirectURL(req.URL.String())
		},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteRef, nil)
	if err != nil {
		return nil, gerr.ErrInvalidReq.Msg("invalid direct import URL")
	}
	req.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.1")

	var resp *http.Response
	err = retry.Do(func() error {
		resp, err = client.Do(req) //nolint:bodyclose // closed below after retry settles
		return err
	}, retry.Attempts(3), retry.Context(ctx), retry.LastErrorOnly(true))
	if err != nil {
		return nil, gerr.ErrCloud.Msg("failed to download direct JSON URL: %s", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, gerr.ErrCloud.Msg("failed to download direct JSON URL (HTTP %d)", resp.StatusCode)
	}
	contentType := strings.ToLower(resp.Header.Get("Content-Type"))
	if contentType != "" && !strings.Contains(contentType, "json") && !strings.Contains(contentType, "text/plain") {
		return nil, gerr.ErrCloud.Msg("direct import URL did not return JSON content")
	}

	blob, err := io.ReadAll(io.LimitReader(resp.Body, directImportMaxBytes+1))
	if err != nil {
		return nil, gerr.ErrCloud.Msg("failed to read direct import response: %s", err)
	}
	if len(blob) > directImportMaxBytes {
		return nil, gerr.ErrCloud.Msg("direct JSON payload exceeds the %d byte limit", directImportMaxBytes)
	}
	return blob, nil
}

// validateDirectURL rejects URLs that could reach private infrastructure:
// plain HTTP outside dev mode, credentials in the URL, loopback and private
// hosts, including every resolved address of a hostname.
func (s *CloudService) validateDirectURL(remoteRef string) error {
	parsed, err := url.Parse(strings.TrimSpace(remoteRef))
	if err != nil {
		return gerr.ErrInvalidReq.Msg("invalid direct import URL")
	}
	switch parsed.Scheme {
	case "https":
	case "http":
		if !s.conf.DevMode {
			return gerr.ErrInvalidReq.Msg("direct import via plain HTTP is disabled")
		}
	default:
		return gerr.ErrInvalidReq.Msg("direct import requires an http(s) URL")
	}
	if parsed.User != nil {
		return gerr.ErrInvalidReq.Msg("direct import URL must not carry credentials")
	}

	host := strings.ToLower(strings.TrimSuffix(parsed.Hostname(), "."))
	if host == "" {
		return gerr.ErrInvalidReq.Msg("direct import URL must include a host")
	}
	if host == "localhost" || host == "localhost.localdomain" || strings.HasSuffix(host, ".local") {
		return gerr.ErrInvalidReq.Msg("direct import URL points to the local network")
	}

	if ip := net.ParseIP(host); ip != nil {
		if !isPublicIP(ip) {
			return gerr.ErrInvalidReq.Msg("direct import URL points to a private network")
		}
		return nil
	}

	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		return gerr.ErrCloud.Msg("failed to resolve direct import URL host")
	}
	for _, ip := range ips {
		if !isPublicIP(ip) {
			return gerr.ErrInvalidReq.Msg("direct import URL points to a private network")
		}
	}
	return nil
}

func isPublicIP(ip net.IP) bool {
	return ip.IsGlobalUnicast() &&
		!ip.IsPrivate() &&
		!ip.IsLoopback() &&
		!ip.IsLinkLocalUnicast() &&
		!ip.IsLinkLocalMulticast() &&
		!ip.IsUnspecified()
}

// cloudHTTPError surfaces the most useful error text a provider response
// carries.
func cloudHTTPError(status int, body []byte, action string) *gerr.Error {
	detail := strings.TrimSpace(gjson.GetBytes(body, "error.message").String())
	if detail == "" {
		detail = strings.TrimSpace(gjson.GetBytes(body, "error_description").String())
	}
	if detail == "" {
		detail = strings.TrimSpace(gjson.GetBytes(body, "error").String())
	}
	if detail == "" {
		detail = strings.TrimSpace(gjson.GetBytes(body, "message").String())
	}
	if detail != "" {
		return gerr.ErrCloud.Msg("%s (HTTP %d): %s", action, status, detail)
	}
	return gerr.ErrCloud.Msg("%s (HTTP %d)", action, status)
}
