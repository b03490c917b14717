package config

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
)

func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("OPTODO_STORE", "")
	t.Setenv("OPTODO_DATA", "")
	t.Setenv("OPTODO_DB", "")
	t.Setenv("OPTODO_LOG_FILE", "")
	t.Setenv("OPTODO_LATENCY_MS", "")
}

func TestDefaults(t *testing.T) {
	isolate(t)

	c, err := Load()
	assert.Equal(t, nil, err)
	assert.Equal(t, "json", c.Store)
	assert.Equal(t, 2000, c.LatencyMS)
	assert.Equal(t, 2*time.Second, c.Latency())
}

func TestEnvOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("OPTODO_STORE", "mem")
	t.Setenv("OPTODO_LATENCY_MS", "0")
	t.Setenv("OPTODO_LOG_FILE", "/tmp/optodo.log")

	c, err := Load()
	assert.Equal(t, nil, err)
	assert.Equal(t, "mem", c.Store)
	assert.Equal(t, 0, c.LatencyMS)
	assert.Equal(t, "/tmp/optodo.log", c.LogFile)
}

func TestSaveThenLoad(t *testing.T) {
	isolate(t)

	want := Config{Store: "sqlite", DBFile: "/tmp/x.sqlite3", LatencyMS: 10}
	assert.Equal(t, nil, Save(want))

	got, err := Load()
	assert.Equal(t, nil, err)
	assert.Equal(t, want, got)
}

func TestUnknownBackendRejected(t *testing.T) {
	isolate(t)
	t.Setenv("OPTODO_STORE", "etcd")

	_, err := Load()
	assert.NotEqual(t, nil, err)
}

func TestBadLatencyIgnored(t *testing.T) {
	isolate(t)
	t.Setenv("OPTODO_LATENCY_MS", "soon")

	c, err := Load()
	assert.Equal(t, nil, err)
	assert.Equal(t, 2000, c.LatencyMS)
}
