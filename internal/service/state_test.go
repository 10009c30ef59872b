package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"bettersaved/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockStateRepository struct {
	mock.Mock
}

func (m *MockStateRepository) GetState(ctx context.Context, userID int64) (*models.UserState, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserState), args.Error(1)
}

func (m *MockStateRepository) SetState(ctx context.Context, state *models.UserState) error {
	args := m.Called(ctx, state)
	return args.Error(0)
}

func (m *MockStateRepository) ClearState(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *MockStateRepository) CheckRateLimit(ctx context.Context, userID int64, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, userID, limit, window)
	return args.Bool(0), args.Error(1)
}

func newStateService(repo *MockStateRepository) *StateService {
	logger := zerolog.Nop()
	return NewStateService(repo, &logger)
}

func TestStateServiceGetUserState(t *testing.T) {
	ctx := context.Background()

	t.Run("Found", func(t *testing.T) {
		repo := new(MockStateRepository)
		repo.On("GetState", ctx, int64(1)).Return(&models.UserState{
			UserID:      1,
			CurrentStep: models.StepAwaitingAuthCode,
		}, nil)

		state, err := newStateService(repo).GetUserState(ctx, 1)
		require.NoError(t, err)
		assert.Equal(t, models.StepAwaitingAuthCode, state.CurrentStep)
	})

	t.Run("NoState", func(t *testing.T) {
		repo := new(MockStateRepository)
		repo.On("GetState", ctx, int64(2)).Return(nil, nil)

		state, err := newStateService(repo).GetUserState(ctx, 2)
		require.NoError(t, err)
		assert.Nil(t, state)
	})

	t.Run("RepositoryError", func(t *testing.T) {
		repo := new(MockStateRepository)
		repo.On("GetState", ctx, int64(3)).Return(nil, errors.New("redis down"))

		_, err := newStateService(repo).GetUserState(ctx, 3)
		assert.Error(t, err)
	})
}

func TestStateServiceSetUserState(t *testing.T) {
	ctx := context.Background()
	repo := new(MockStateRepository)
	repo.On("SetState", ctx, mock.MatchedBy(func(state *models.UserState) bool {
		return state.UserID == 7 &&
			state.CurrentStep == models.StepAwaitingNukeReply &&
			state.TempData["origin"] == "command"
	})).Return(nil)

	err := newStateService(repo).SetUserState(ctx, 7, models.StepAwaitingNukeReply, map[string]interface{}{"origin": "command"})
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestStateServiceClearUserState(t *testing.T) {
	ctx := context.Background()
	repo := new(MockStateRepository)
	repo.On("ClearState", ctx, int64(9)).Return(nil)

	require.NoError(t, newStateService(repo).ClearUserState(ctx, 9))
	repo.AssertExpectations(t)
}

func TestStateServiceCheckRateLimit(t *testing.T) {
	ctx := context.Background()
	repo := new(MockStateRepository)
	repo.On("CheckRateLimit", ctx, int64(5), 20, time.Minute).Return(false, nil)

	allowed, err := newStateService(repo).CheckRateLimit(ctx, 5, 20, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)
}
