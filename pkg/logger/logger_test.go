package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	testCases := []struct {
		input    string
		expected logrus.Level
	}{
		{"debug", logrus.DebugLevel},
		{"DEBUG", logrus.DebugLevel},
		{"warn", logrus.WarnLevel},
		{"error", logrus.ErrorLevel},
		{"", logrus.InfoLevel},
		{"verbose", logrus.InfoLevel},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseLevel(tc.input))
		})
	}
}

func TestConfigureWritesRotatingFile(t *testing.T) {
	Init()
	file := filepath.Join(t.TempDir(), "prdash.log")

	require.NoError(t, Configure("debug", file))
	WithField("repo", "acme/widgets").Info("refresh started")

	assert.Equal(t, logrus.DebugLevel, GetLogger().GetLevel())
	_, err := os.Lstat(file)
	assert.NoError(t, err, "link to the current log file should exist")

	// Reset so other tests do not write into the temp dir
	Init()
}
