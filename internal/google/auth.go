package google

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	drive "google.golang.org/api/drive/v3"
	sheets "google.golang.org/api/sheets/v4"
)

// redirectOOB заставляет Google показать код авторизации пользователю,
// чтобы он прислал его боту вручную.
const redirectOOB = "urn:ietf:wg:oauth:2.0:oob"

const revokeEndpoint = "https://oauth2.googleapis.com/revoke"

// Authenticator строит OAuth ссылки и обменивает коды на токены.
// Запрашивается минимальный набор прав: drive.file видит только файлы,
// созданные самим ботом.
type Authenticator struct {
	config     *oauth2.Config
	httpClient *http.Client
	revokeURL  string
}

func NewAuthenticator(credentialsFile string) (*Authenticator, error) {
	data, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(data, drive.DriveFileScope, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	config.RedirectURL = redirectOOB

	return &Authenticator{config: config, httpClient: http.DefaultClient, revokeURL: revokeEndpoint}, nil
}

// AuthCodeURL возвращает ссылку для подключения аккаунта. offline+consent
// гарантируют refresh token даже при повторном подключении.
func (a *Authenticator) AuthCodeURL(state string) string {
	return a.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	)
}

func (a *Authenticator) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	token, err := a.config.Exchange(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, fmt.Errorf("exchange auth code: %w", err)
	}
	return token, nil
}

func (a *Authenticator) TokenSource(ctx context.Context, token *oauth2.Token) oauth2.TokenSource {
	return a.config.TokenSource(ctx, token)
}

// Revoke отзывает токен на стороне Google. Ошибка 400 означает, что
// токен уже недействителен, это не считается сбоем.
func (a *Authenticator) Revoke(ctx context.Context, token *oauth2.Token) error {
	revokeTarget := token.RefreshToken
	if revokeTarget == "" {
		revokeTarget = token.AccessToken
	}
	if revokeTarget == "" {
		return nil
	}

	form := url.Values{"token": {revokeTarget}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.revokeURL, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("revoke token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusBadRequest {
		return fmt.Errorf("revoke token: unexpected status %d", resp.StatusCode)
	}
	return nil
}
