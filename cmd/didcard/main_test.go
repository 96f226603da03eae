package main

import (
	"bytes"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, newLogger("debug").GetLevel())
	assert.Equal(t, logrus.InfoLevel, newLogger("loud").GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, newLogger("info").Formatter)
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd()
	for _, path := range [][]string{
		{"serve"},
		{"wallet", "generate"},
		{"wallet", "show"},
		{"wallet", "rekey"},
		{"records", "list"},
		{"records", "create"},
		{"records", "verify"},
		{"records", "attest"},
		{"probe"},
		{"attest", "verify"},
		{"attest", "export-vk"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestRecordsVerifyNeedsID(t *testing.T) {
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"records", "verify"})

	err := root.Execute()
	assert.ErrorContains(t, err, "accepts 1 arg(s), received 0")
}
