package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestResolveLogFilePathDefaultDir(t *testing.T) {
	tmpDir := t.TempDir()
	oldWD, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = os.Chdir(oldWD)
	})
	require.NoError(t, os.Chdir(tmpDir))

	got, err := resolveLogFilePath(Options{})
	require.NoError(t, err)

	realTmpDir, err := filepath.EvalSymlinks(tmpDir)
	require.NoError(t, err)
	realGot, err := filepath.EvalSymlinks(filepath.Dir(got))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(realTmpDir, defaultLogDirName), realGot)
	assert.Equal(t, defaultLogFilename, filepath.Base(got))
}

func TestNewReleaseWritesServiceField(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Service: "checkout", Dir: tmpDir, Filename: "release.log"})
	log.Info("order_placed")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "release.log"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "order_placed")
	assert.Contains(t, string(content), `"service":"checkout"`)
}

func TestNewDebugDoesNotWriteFile(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("debug", Options{Dir: tmpDir, Filename: "debug.log"})
	log.Info("debug-log-test")
	_ = log.Sync()

	_, err := os.Stat(filepath.Join(tmpDir, "debug.log"))
	assert.True(t, os.IsNotExist(err), "debug mode should not create log file")
}

func TestResolveLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, resolveLevel(true, "").Level())
	assert.Equal(t, zapcore.InfoLevel, resolveLevel(false, "").Level())
	assert.Equal(t, zapcore.WarnLevel, resolveLevel(false, "WARN").Level())
	assert.Equal(t, zapcore.InfoLevel, resolveLevel(false, "loud").Level())
}

func TestReleaseLevelFiltersDebug(t *testing.T) {
	tmpDir := t.TempDir()
	log := New("release", Options{Level: "warn", Dir: tmpDir, Filename: "level.log"})
	log.Info("cart_recalculated")
	log.Warn("discount_usage_exhausted")
	_ = log.Sync()

	content, err := os.ReadFile(filepath.Join(tmpDir, "level.log"))
	require.NoError(t, err)
	assert.NotContains(t, string(content), "cart_recalculated")
	assert.Contains(t, string(content), "discount_usage_exhausted")
}
