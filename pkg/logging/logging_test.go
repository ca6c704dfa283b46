package logging

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func TestSetup_Levels(t *testing.T) {
	logger := logrus.New()

	closer := Setup(logger, Options{})
	require.NoError(t, closer.Close())
	require.Equal(t, logrus.InfoLevel, logger.GetLevel())

	closer = Setup(logger, Options{Verbose: true})
	require.NoError(t, closer.Close())
	require.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestSetup_LogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.log")
	logger := logrus.New()

	closer := Setup(logger, Options{LogFile: path})
	logger.WithField("window", "[0, 1000]").Info("wrote window")
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(data), "wrote window")
	require.Contains(t, string(data), "window=\"[0, 1000]\"")
}
