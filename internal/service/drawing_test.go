package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"collaborative-canvas/internal/domain"
	"collaborative-canvas/internal/repository"
	"collaborative-canvas/internal/repository/mocks"
	"collaborative-canvas/internal/service"
)

func TestDrawingService_Create(t *testing.T) {
	mockDrawingRepo := new(mocks.DrawingRepository)
	svc := service.NewDrawingService(mockDrawingRepo)
	ctx := context.Background()

	mockDrawingRepo.On("Create", ctx, mock.MatchedBy(func(d *domain.Drawing) bool {
		return d.Name == "sketch" && d.StoreJSON == `{"records":{}}`
	})).
		Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Drawing).ID = "generated-id"
		}).
		Return(nil).Once()

	drawing, err := svc.Create(ctx, "sketch", `{"records":{}}`)
	require.NoError(t, err)
	assert.Equal(t, "generated-id", drawing.ID)
	mockDrawingRepo.AssertExpectations(t)
}

func TestDrawingService_Create_RequiresStore(t *testing.T) {
	mockDrawingRepo := new(mocks.DrawingRepository)
	svc := service.NewDrawingService(mockDrawingRepo)

	_, err := svc.Create(context.Background(), "sketch", "")
	assert.ErrorIs(t, err, service.ErrInvalidPayload)
	mockDrawingRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestDrawingService_Get_NotFound(t *testing.T) {
	mockDrawingRepo := new(mocks.DrawingRepository)
	svc := service.NewDrawingService(mockDrawingRepo)
	ctx := context.Background()

	mockDrawingRepo.On("FindByID", ctx, "ghost").
		Return(nil, repository.ErrDrawingNotFound).Once()

	_, err := svc.Get(ctx, "ghost")
	assert.ErrorIs(t, err, service.ErrDrawingNotFound)
}

func TestDrawingService_Update(t *testing.T) {
	mockDrawingRepo := new(mocks.DrawingRepository)
	svc := service.NewDrawingService(mockDrawingRepo)
	ctx := context.Background()

	name := "renamed"
	mockDrawingRepo.On("Update", ctx, "d-1", map[string]interface{}{"name": "renamed"}).
		Return(nil).Once()
	mockDrawingRepo.On("FindByID", ctx, "d-1").
		Return(&domain.Drawing{ID: "d-1", Name: "renamed"}, nil).Once()

	drawing, err := svc.Update(ctx, "d-1", &name, nil)
	require.NoError(t, err)
	assert.Equal(t, "renamed", drawing.Name)
	mockDrawingRepo.AssertExpectations(t)
}

func TestDrawingService_Update_NoFields(t *testing.T) {
	mockDrawingRepo := new(mocks.DrawingRepository)
	svc := service.NewDrawingService(mockDrawingRepo)

	_, err := svc.Update(context.Background(), "d-1", nil, nil)
	assert.ErrorIs(t, err, service.ErrInvalidPayload)
	mockDrawingRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

func TestDrawingService_Delete(t *testing.T) {
	mockDrawingRepo := new(mocks.DrawingRepository)
	svc := service.NewDrawingService(mockDrawingRepo)
	ctx := context.Background()

	mockDrawingRepo.On("Delete", ctx, "d-1").Return(nil).Once()
	assert.NoError(t, svc.Delete(ctx, "d-1"))

	mockDrawingRepo.On("Delete", ctx, "ghost").
		Return(repository.ErrDrawingNotFound).Once()
	assert.ErrorIs(t, svc.Delete(ctx, "ghost"), service.ErrDrawingNotFound)

	mockDrawingRepo.On("Delete", ctx, "d-2").
		Return(errors.New("db down")).Once()
	assert.ErrorIs(t, svc.Delete(ctx, "d-2"), service.ErrInternalServer)
}
