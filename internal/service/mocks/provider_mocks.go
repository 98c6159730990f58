package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyreel-server/internal/messaging"
	"storyreel-server/internal/provider"
	"storyreel-server/internal/storage"
)

// MockImageProvider is a mock type for the ImageProvider type
type MockImageProvider struct {
	mock.Mock
}

func (_m *MockImageProvider) GenerateImage(ctx context.Context, prompt string) (*provider.GeneratedMedia, error) {
	ret := _m.Called(ctx, prompt)
	var r0 *provider.GeneratedMedia
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*provider.GeneratedMedia)
	}
	return r0, ret.Error(1)
}

var _ provider.ImageProvider = (*MockImageProvider)(nil)

// MockSpeechProvider is a mock type for the SpeechProvider type
type MockSpeechProvider struct {
	mock.Mock
}

func (_m *MockSpeechProvider) Synthesize(ctx context.Context, text string) (*provider.GeneratedMedia, error) {
	ret := _m.Called(ctx, text)
	var r0 *provider.GeneratedMedia
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*provider.GeneratedMedia)
	}
	return r0, ret.Error(1)
}

var _ provider.SpeechProvider = (*MockSpeechProvider)(nil)

// MockRenderBackend is a mock type for the RenderBackend type
type MockRenderBackend struct {
	mock.Mock
}

func (_m *MockRenderBackend) SubmitRender(ctx context.Context, payload provider.RenderPayload) (*provider.RenderSubmission, error) {
	ret := _m.Called(ctx, payload)
	var r0 *provider.RenderSubmission
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*provider.RenderSubmission)
	}
	return r0, ret.Error(1)
}

func (_m *MockRenderBackend) GetRenderState(ctx context.Context, externalRenderID string) (*provider.RenderState, error) {
	ret := _m.Called(ctx, externalRenderID)
	var r0 *provider.RenderState
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*provider.RenderState)
	}
	return r0, ret.Error(1)
}

var _ provider.RenderBackend = (*MockRenderBackend)(nil)

// MockMediaStore is a mock type for the MediaStore type
type MockMediaStore struct {
	mock.Mock
}

func (_m *MockMediaStore) Save(reference, contentType string, data []byte) (string, error) {
	ret := _m.Called(reference, contentType, data)
	return ret.String(0), ret.Error(1)
}

var _ storage.MediaStore = (*MockMediaStore)(nil)

// MockEventPublisher is a mock type for the EventPublisher type
type MockEventPublisher struct {
	mock.Mock
}

func (_m *MockEventPublisher) Publish(ctx context.Context, event messaging.PipelineEvent) error {
	ret := _m.Called(ctx, event)
	return ret.Error(0)
}

func (_m *MockEventPublisher) Close() error {
	ret := _m.Called()
	return ret.Error(0)
}

var _ messaging.EventPublisher = (*MockEventPublisher)(nil)
