package main

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"camlab/internal/config"
)

func TestInitLogger(t *testing.T) {
	l := initLogger(true, config.LogConfig{Level: "error", Format: "json"})
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	l = initLogger(false, config.LogConfig{Level: "warn", Format: "json"})
	assert.Equal(t, logrus.WarnLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)

	l = initLogger(false, config.LogConfig{Level: "chatty", Format: "TEXT"})
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)
}

func TestConfigCommandAppliesFlags(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"config", "--format", "yaml", "--device", "3", "--synthetic", "--channel", "latest", "--on-end", "exit"})
	require.NoError(t, rootCmd.Execute())

	var printed config.Config
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &printed))
	assert.Equal(t, 3, printed.Camera.Device)
	assert.True(t, printed.Camera.Synthetic)
	assert.Equal(t, "latest", printed.Stream.Kind)
	assert.Equal(t, config.OnEndExit, printed.Display.OnStreamEnd)
	assert.Equal(t, "native", printed.Filter.Preset)
}
