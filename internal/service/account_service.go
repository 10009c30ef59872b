package service

import (
	"context"

	"bettersaved/internal/domain"
	"bettersaved/internal/events"
	"bettersaved/internal/localization"
	"bettersaved/internal/models"

	"github.com/rs/zerolog"
)

type AccountService struct {
	repo    domain.Repository
	locales *localization.Table
	bus     domain.EventPublisher
	logger  *zerolog.Logger
}

func NewAccountService(repo domain.Repository, locales *localization.Table, bus domain.EventPublisher, logger *zerolog.Logger) *AccountService {
	return &AccountService{
		repo:    repo,
		locales: locales,
		bus:     bus,
		logger:  logger,
	}
}

// RegisterOrRefresh создает аккаунт при первом /start или обновляет имя.
// Второй результат истинен для новых аккаунтов.
func (s *AccountService) RegisterOrRefresh(ctx context.Context, telegramID int64, name, langCode string) (*models.Account, bool, error) {
	existing, err := s.repo.GetAccountByTelegramID(ctx, telegramID)
	if err == nil {
		account := *existing
		account.Name = name
		if err := s.repo.CreateOrUpdateAccount(ctx, &account); err != nil {
			return nil, false, err
		}
		return &account, false, nil
	}

	lang := localization.DefaultLang
	if s.locales.Has(langCode) {
		lang = langCode
	}

	account := &models.Account{
		TelegramID: telegramID,
		Name:       name,
		Lang:       lang,
	}
	if err := s.repo.CreateOrUpdateAccount(ctx, account); err != nil {
		return nil, false, err
	}

	s.logger.Info().Int64("telegram_id", telegramID).Str("lang", lang).Msg("account registered")
	return account, true, nil
}

// Get возвращает аккаунт вместе со счётчиком сохранённых записей.
func (s *AccountService) Get(ctx context.Context, telegramID int64) (*models.Account, error) {
	account, err := s.repo.GetAccountByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountSavedItems(ctx, account.ID)
	if err != nil {
		return nil, err
	}
	account.MessageCount = count

	return account, nil
}

// Items возвращает последние записи аккаунта.
func (s *AccountService) Items(ctx context.Context, telegramID int64, limit int) ([]models.SavedItem, error) {
	account, err := s.repo.GetAccountByTelegramID(ctx, telegramID)
	if err != nil {
		return nil, err
	}
	return s.repo.GetAccountItems(ctx, account.ID, limit)
}

func (s *AccountService) SetLanguage(ctx context.Context, telegramID int64, lang string) error {
	if !s.locales.Has(lang) {
		lang = localization.DefaultLang
	}
	return s.repo.SetLanguage(ctx, telegramID, lang)
}

func (s *AccountService) MarkConnectHintShown(ctx context.Context, telegramID int64) error {
	return s.repo.MarkConnectHintShown(ctx, telegramID)
}

// Nuke удаляет аккаунт и все его записи из БД. Файлы и таблица на
// Google Диске пользователя остаются нетронутыми.
func (s *AccountService) Nuke(ctx context.Context, telegramID int64) error {
	account, err := s.repo.GetAccountByTelegramID(ctx, telegramID)
	if err != nil {
		return err
	}

	if err := s.repo.DeleteAccount(ctx, telegramID); err != nil {
		return err
	}

	s.logger.Info().Int64("telegram_id", telegramID).Msg("account deleted")
	return s.bus.PublishJSON(events.EventAccountDeleted, events.AccountEventPayload{
		AccountID:  account.ID,
		TelegramID: telegramID,
	})
}
