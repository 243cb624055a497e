package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/totegamma/mjtimeline/core"
	"github.com/totegamma/mjtimeline/x/identity/mock"
)

const (
	Owner    = "iota1qyx3cgcwkfvcl2qhnxn3c3l0cfsqngpfm5n8wf"
	Timeline = "0x8f1d2c3b4a5968778695a4b3c2d1e0f0"
)

func TestResolveFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_identity.NewMockRepository(ctrl)
	mockRepo.EXPECT().GetCache(gomock.Any(), Owner).Return(Timeline, nil)

	service := NewService(mockRepo)
	id, err := service.Resolve(context.Background(), Owner)
	assert.NoError(t, err)
	assert.Equal(t, Timeline, id)
}

func TestResolveFromLedger(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_identity.NewMockRepository(ctrl)
	mockRepo.EXPECT().GetCache(gomock.Any(), Owner).Return("", core.NewErrorNotFound())
	mockRepo.EXPECT().Lookup(gomock.Any(), Owner).Return([]core.TimelineContainer{
		{ID: "0xother", Owner: "iota1someoneelse"},
		{ID: Timeline, Owner: "IOTA1QYX3CGCWKFVCL2QHNXN3C3L0CFSQNGPFM5N8WF"},
	}, nil)
	mockRepo.EXPECT().SetCache(gomock.Any(), Owner, Timeline).Return(errors.New("memcache down"))

	service := NewService(mockRepo)
	id, err := service.Resolve(context.Background(), Owner)
	assert.NoError(t, err)
	assert.Equal(t, Timeline, id)
}

func TestResolveNotInitialized(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_identity.NewMockRepository(ctrl)
	mockRepo.EXPECT().GetCache(gomock.Any(), Owner).Return("", core.NewErrorNotFound())
	mockRepo.EXPECT().Lookup(gomock.Any(), Owner).Return([]core.TimelineContainer{}, nil)

	service := NewService(mockRepo)
	_, err := service.Resolve(context.Background(), Owner)
	assert.ErrorIs(t, err, core.NewErrorNotFound())
}

func TestResolveLedgerFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_identity.NewMockRepository(ctrl)
	mockRepo.EXPECT().GetCache(gomock.Any(), Owner).Return("", core.NewErrorNotFound())
	mockRepo.EXPECT().Lookup(gomock.Any(), Owner).Return(nil, errors.New("timeout"))

	service := NewService(mockRepo)
	_, err := service.Resolve(context.Background(), Owner)

	var gerr *core.ErrorGateway
	assert.True(t, errors.As(err, &gerr))
}

func TestResolveWithoutAddress(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	service := NewService(mock_identity.NewMockRepository(ctrl))
	_, err := service.Resolve(context.Background(), "")
	assert.ErrorIs(t, err, core.NewErrorNotConnected())
}

func TestRememberAndForget(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mockRepo := mock_identity.NewMockRepository(ctrl)
	mockRepo.EXPECT().SetCache(gomock.Any(), Owner, Timeline).Return(nil)
	mockRepo.EXPECT().DeleteCache(gomock.Any(), Owner).Return(nil)

	service := NewService(mockRepo)
	assert.NoError(t, service.Remember(context.Background(), Owner, Timeline))
	assert.NoError(t, service.Forget(context.Background(), Owner))
}
