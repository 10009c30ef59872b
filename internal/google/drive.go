package google

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"bettersaved/internal/models"
)

const folderMimeType = "application/vnd.google-apps.folder"

// DriveClient работает с Google Drive от имени пользователя: токен
// каждого аккаунта свой, поэтому сервис создаётся на каждый вызов.
// Общий rate.Limiter прикрывает квоту Google API на всех пользователей.
type DriveClient struct {
	limiter *rate.Limiter
}

func NewDriveClient(limiter *rate.Limiter) *DriveClient {
	return &DriveClient{limiter: limiter}
}

func (c *DriveClient) service(ctx context.Context, ts oauth2.TokenSource) (*drive.Service, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	svc, err := drive.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create drive service: %w", err)
	}
	return svc, nil
}

// EnsureRootFolder находит корневую папку бота по имени или создаёт её.
// Повторное подключение аккаунта попадает в ту же папку.
func (c *DriveClient) EnsureRootFolder(ctx context.Context, ts oauth2.TokenSource, name string) (string, string, error) {
	svc, err := c.service(ctx, ts)
	if err != nil {
		return "", "", err
	}

	query := fmt.Sprintf("mimeType = '%s' and name = '%s' and trashed = false",
		folderMimeType, escapeQuery(name))
	list, err := svc.Files.List().Q(query).
		Fields("files(id, webViewLink)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("search root folder: %w", err)
	}

	if len(list.Files) > 0 {
		f := list.Files[0]
		return f.Id, folderURL(f.Id, f.WebViewLink), nil
	}

	created, err := svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
	}).Fields("id, webViewLink").Context(ctx).Do()
	if err != nil {
		return "", "", fmt.Errorf("create root folder: %w", err)
	}

	return created.Id, folderURL(created.Id, created.WebViewLink), nil
}

// EnsureFolder находит или создаёт подпапку внутри parentID.
func (c *DriveClient) EnsureFolder(ctx context.Context, ts oauth2.TokenSource, parentID, name string) (string, error) {
	svc, err := c.service(ctx, ts)
	if err != nil {
		return "", err
	}

	query := fmt.Sprintf("mimeType = '%s' and name = '%s' and '%s' in parents and trashed = false",
		folderMimeType, escapeQuery(name), parentID)
	list, err := svc.Files.List().Q(query).Fields("files(id)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("search folder %s: %w", name, err)
	}

	if len(list.Files) > 0 {
		return list.Files[0].Id, nil
	}

	created, err := svc.Files.Create(&drive.File{
		Name:     name,
		MimeType: folderMimeType,
		Parents:  []string{parentID},
	}).Fields("id").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create folder %s: %w", name, err)
	}

	return created.Id, nil
}

// Upload загружает файл в указанную папку и возвращает id и ссылку.
func (c *DriveClient) Upload(ctx context.Context, ts oauth2.TokenSource, parentID string, upload *models.Upload) (string, string, error) {
	svc, err := c.service(ctx, ts)
	if err != nil {
		return "", "", err
	}

	meta := &drive.File{
		Name:    upload.Name,
		Parents: []string{parentID},
	}
	call := svc.Files.Create(meta).Fields("id, webViewLink").Context(ctx)
	if upload.MIME != "" {
		call = call.Media(upload.Body, googleapi.ContentType(upload.MIME))
	} else {
		call = call.Media(upload.Body)
	}

	created, err := call.Do()
	if err != nil {
		return "", "", fmt.Errorf("upload %s: %w", upload.Name, err)
	}

	return created.Id, created.WebViewLink, nil
}

// FolderExists проверяет, что папка жива и не в корзине.
func (c *DriveClient) FolderExists(ctx context.Context, ts oauth2.TokenSource, id string) (bool, error) {
	svc, err := c.service(ctx, ts)
	if err != nil {
		return false, err
	}

	f, err := svc.Files.Get(id).Fields("id, trashed").Context(ctx).Do()
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return !f.Trashed, nil
}

func isNotFound(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == 404
}

func folderURL(id, webViewLink string) string {
	if webViewLink != "" {
		return webViewLink
	}
	return "https://drive.google.com/drive/folders/" + id
}

// escapeQuery экранирует кавычки в именах для Drive query.
func escapeQuery(s string) string {
	return strings.ReplaceAll(s, "'", `\'`)
}
