package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.trai.ch/burrow/internal/app"
	"go.trai.ch/burrow/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

// stubComponents builds Components whose App never reaches its ports; the
// commands under test here resolve before any port is touched.
func stubComponents(ctrl *gomock.Controller) *app.Components {
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Error(gomock.Any()).AnyTimes()

	return &app.Components{
		App:    app.New(nil, nil, nil, nil, nil, nil, nil, nil, log),
		Logger: log,
	}
}

func TestRun_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	components := stubComponents(ctrl)

	provider := func(_ context.Context) (*app.Components, error) {
		return components, nil
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)
	assert.Equal(t, 0, exitCode)
}

func TestRun_InitializationError(t *testing.T) {
	provider := func(_ context.Context) (*app.Components, error) {
		return nil, errors.New("init failed")
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"version"}, stderr, provider)

	assert.Equal(t, 1, exitCode)
	assert.Contains(t, stderr.String(), "Error: init failed")
}

func TestRun_ExecutionError(t *testing.T) {
	ctrl := gomock.NewController(t)
	components := stubComponents(ctrl)

	provider := func(_ context.Context) (*app.Components, error) {
		return components, nil
	}

	stderr := new(bytes.Buffer)
	exitCode := run(context.Background(), []string{"no-such-command"}, stderr, provider)
	assert.Equal(t, 1, exitCode)
}
