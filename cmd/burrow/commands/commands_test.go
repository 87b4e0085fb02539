package commands_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/burrow/cmd/burrow/commands"
	"go.trai.ch/burrow/internal/app"
	"go.trai.ch/burrow/internal/build"
)

type mockApp struct {
	convertFunc        func(ctx context.Context, opts app.ConvertOptions) error
	installFunc        func(ctx context.Context, opts app.InstallOptions) error
	buildFunc          func(ctx context.Context, opts app.BuildOptions) error
	checkTemplatesFunc func(ctx context.Context) error
}

func (m *mockApp) Convert(ctx context.Context, opts app.ConvertOptions) error {
	if m.convertFunc != nil {
		return m.convertFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Install(ctx context.Context, opts app.InstallOptions) error {
	if m.installFunc != nil {
		return m.installFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) Build(ctx context.Context, opts app.BuildOptions) error {
	if m.buildFunc != nil {
		return m.buildFunc(ctx, opts)
	}
	return nil
}

func (m *mockApp) CheckTemplates(ctx context.Context) error {
	if m.checkTemplatesFunc != nil {
		return m.checkTemplatesFunc(ctx)
	}
	return nil
}

func execute(t *testing.T, mock *mockApp, args ...string) (string, error) {
	t.Helper()
	cli := commands.New(mock)
	cli.SetArgs(args)

	out := &bytes.Buffer{}
	cli.SetOutput(out, out)
	err := cli.Execute(context.Background())
	return out.String(), err
}

func TestCommands_Convert(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.ConvertOptions
		mock := &mockApp{
			convertFunc: func(_ context.Context, opts app.ConvertOptions) error {
				captured = opts
				return nil
			},
		}

		_, err := execute(t, mock,
			"convert", "--lockfile", "demo/bun.lock", "--output", "-", "--no-prefetch", "--watch")
		require.NoError(t, err)

		assert.Equal(t, "demo/bun.lock", captured.LockfilePath)
		assert.Equal(t, "-", captured.OutputPath)
		assert.True(t, captured.NoPrefetch)
		assert.True(t, captured.Watch)
	})

	t.Run("defaults leave paths empty", func(t *testing.T) {
		var captured app.ConvertOptions
		mock := &mockApp{
			convertFunc: func(_ context.Context, opts app.ConvertOptions) error {
				captured = opts
				return nil
			},
		}

		_, err := execute(t, mock, "convert")
		require.NoError(t, err)

		assert.Empty(t, captured.LockfilePath)
		assert.Empty(t, captured.OutputPath)
		assert.False(t, captured.NoPrefetch)
		assert.False(t, captured.Watch)
	})

	t.Run("returns conversion failure", func(t *testing.T) {
		mock := &mockApp{
			convertFunc: func(_ context.Context, _ app.ConvertOptions) error {
				return errors.New("simulated error")
			},
		}

		_, err := execute(t, mock, "convert")
		require.ErrorContains(t, err, "simulated error")
	})

	t.Run("rejects positional arguments", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "convert", "extra")
		require.Error(t, err)
	})
}

func TestCommands_Install(t *testing.T) {
	var captured app.InstallOptions
	mock := &mockApp{
		installFunc: func(_ context.Context, opts app.InstallOptions) error {
			captured = opts
			return nil
		},
	}

	_, err := execute(t, mock, "install", "-l", "bun.lock", "-d", "vendor/node_modules")
	require.NoError(t, err)

	assert.Equal(t, "bun.lock", captured.LockfilePath)
	assert.Equal(t, "vendor/node_modules", captured.DestDir)
}

func TestCommands_Build(t *testing.T) {
	t.Run("wires flags correctly", func(t *testing.T) {
		var captured app.BuildOptions
		mock := &mockApp{
			buildFunc: func(_ context.Context, opts app.BuildOptions) error {
				captured = opts
				return nil
			},
		}

		_, err := execute(t, mock,
			"build", "src/index.ts", "--minify", "--sourcemap", "--bytecode", "--compile", "-o", "bin/app")
		require.NoError(t, err)

		assert.Equal(t, "src/index.ts", captured.EntryPoint)
		assert.Equal(t, "bin/app", captured.OutputPath)
		assert.True(t, captured.Minify)
		assert.True(t, captured.Sourcemap)
		assert.True(t, captured.Bytecode)
		assert.True(t, captured.Compile)
	})

	t.Run("default outfile", func(t *testing.T) {
		var captured app.BuildOptions
		mock := &mockApp{
			buildFunc: func(_ context.Context, opts app.BuildOptions) error {
				captured = opts
				return nil
			},
		}

		_, err := execute(t, mock, "build", "src/index.ts")
		require.NoError(t, err)
		assert.Equal(t, "dist/app", captured.OutputPath)
	})

	t.Run("requires exactly one entrypoint", func(t *testing.T) {
		_, err := execute(t, &mockApp{}, "build")
		require.Error(t, err)

		_, err = execute(t, &mockApp{}, "build", "a.ts", "b.ts")
		require.Error(t, err)
	})
}

func TestCommands_TemplatesCheck(t *testing.T) {
	called := false
	mock := &mockApp{
		checkTemplatesFunc: func(_ context.Context) error {
			called = true
			return nil
		},
	}

	_, err := execute(t, mock, "templates", "check")
	require.NoError(t, err)
	assert.True(t, called)
}

func TestCommands_Version(t *testing.T) {
	out, err := execute(t, &mockApp{}, "version")
	require.NoError(t, err)

	assert.Contains(t, out, "burrow version "+build.Version)
	assert.Contains(t, out, "commit: "+build.Commit)
}

func TestCommands_VersionFlag(t *testing.T) {
	out, err := execute(t, &mockApp{}, "--version")
	require.NoError(t, err)
	assert.Contains(t, out, build.Version)
}
