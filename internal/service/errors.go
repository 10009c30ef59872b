package service

import "errors"

var (
	// ErrInvalidAuthCode — код авторизации не прошёл обмен.
	ErrInvalidAuthCode = errors.New("invalid authorization code")
	// ErrNoDriveToken — операция требует подключённого Google аккаунта.
	ErrNoDriveToken = errors.New("google account is not linked")
	// ErrAlreadyLinked — аккаунт уже подключён.
	ErrAlreadyLinked = errors.New("google account is already linked")
	// ErrDriveUnavailable — Google Drive не ответил на запрос.
	ErrDriveUnavailable = errors.New("google drive unavailable")
)
