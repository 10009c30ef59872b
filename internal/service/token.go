package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"bettersaved/internal/domain"
	"bettersaved/internal/models"

	"golang.org/x/oauth2"
)

func decodeToken(raw string) (*oauth2.Token, error) {
	var token oauth2.Token
	if err := json.Unmarshal([]byte(raw), &token); err != nil {
		return nil, fmt.Errorf("decode drive token: %w", err)
	}
	return &token, nil
}

func encodeToken(token *oauth2.Token) (string, error) {
	data, err := json.Marshal(token)
	if err != nil {
		return "", fmt.Errorf("encode drive token: %w", err)
	}
	return string(data), nil
}

// persistingTokenSource прозрачно сохраняет обновлённый access token в БД,
// чтобы не обменивать refresh token на каждый запрос.
type persistingTokenSource struct {
	inner      oauth2.TokenSource
	repo       domain.Repository
	telegramID int64

	mu   sync.Mutex
	last string
}

func newPersistingTokenSource(ctx context.Context, auth domain.Authenticator, repo domain.Repository, account *models.Account) (oauth2.TokenSource, error) {
	token, err := decodeToken(account.DriveToken)
	if err != nil {
		return nil, err
	}
	return &persistingTokenSource{
		inner:      auth.TokenSource(ctx, token),
		repo:       repo,
		telegramID: account.TelegramID,
		last:       account.DriveToken,
	}, nil
}

func (s *persistingTokenSource) Token() (*oauth2.Token, error) {
	token, err := s.inner.Token()
	if err != nil {
		return nil, err
	}

	encoded, err := encodeToken(token)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	changed := encoded != s.last
	if changed {
		s.last = encoded
	}
	s.mu.Unlock()

	if changed {
		// Потеря обновления не фатальна: старый refresh token остаётся рабочим
		_ = s.repo.UpdateDriveToken(context.Background(), s.telegramID, encoded)
	}

	return token, nil
}
