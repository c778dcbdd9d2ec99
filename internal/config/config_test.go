package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fastfinder/internal/eventbus"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestDefaultConfigIsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastfinder.toml")
	writeFile(t, path, `
[worker]
command = "python3 -X utf8"
script = "/opt/scan.py"
grace_period = "2s"
use_pty = true

[pipeline]
batch_size = 250
drain_interval = "50ms"

[search]
max_workers = 8
legacy_doc = "external"
`)

	cfg, err := NewConfigService("", zap.NewNop()).LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "python3 -X utf8", cfg.Worker.Command)
	assert.Equal(t, "/opt/scan.py", cfg.Worker.Script)
	assert.Equal(t, 2*time.Second, cfg.Worker.GracePeriod.Std())
	assert.True(t, cfg.Worker.UsePTY)
	assert.Equal(t, 250, cfg.Pipeline.BatchSize)
	assert.Equal(t, 50*time.Millisecond, cfg.Pipeline.DrainInterval.Std())
	// untouched keys keep their defaults
	assert.Equal(t, 250*time.Millisecond, cfg.Pipeline.FilterDebounce.Std())
	assert.True(t, cfg.Search.Recursive)
	assert.Equal(t, 8, cfg.Search.MaxWorkers)
	assert.Equal(t, "external", cfg.Search.LegacyDoc)
}

func TestLoadFromPathMissing(t *testing.T) {
	_, err := NewConfigService("", nil).LoadFromPath(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	writeFile(t, path, `
[worker]
command = "python 'unterminated"

[pipeline]
batch_size = 0

[search]
legacy_doc = "maybe"
`)

	_, err := NewConfigService(path, nil).Load()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "Worker.Command")
	assert.Contains(t, msg, "Pipeline.BatchSize")
	assert.Contains(t, msg, "Search.LegacyDoc")
}

func TestEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fastfinder.toml")
	writeFile(t, path, "[worker]\ncommand = \"python3\"\n")
	t.Setenv("FASTFINDER_WORKER_COMMAND", "/usr/local/bin/scan")
	t.Setenv("FASTFINDER_PIPELINE_BATCH_SIZE", "42")
	t.Setenv("FASTFINDER_WORKER_GRACE_PERIOD", "750ms")

	cfg, err := NewConfigService(path, nil).Load()
	require.NoError(t, err)
	assert.Equal(t, "/usr/local/bin/scan", cfg.Worker.Command)
	assert.Equal(t, 42, cfg.Pipeline.BatchSize)
	assert.Equal(t, 750*time.Millisecond, cfg.Worker.GracePeriod.Std())
}

func TestLoadWithoutFileUsesDefaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(dir, "xdg"))

	bus := eventbus.New(zap.NewNop())
	defer bus.Close()
	loaded := make(chan eventbus.ConfigLoadedEvent, 1)
	bus.Subscribe(eventbus.EventConfigLoaded, func(e eventbus.DomainEvent) {
		loaded <- e.(eventbus.ConfigLoadedEvent)
	})

	svc := NewConfigServiceWithBus("", bus, zap.NewNop())
	cfg, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
	assert.Equal(t, DefaultPath(), svc.Path())

	select {
	case ev := <-loaded:
		assert.Equal(t, "", ev.Path)
	case <-time.After(2 * time.Second):
		t.Fatal("ConfigLoaded not published")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fastfinder.toml")
	svc := NewConfigService(path, nil)

	cfg := DefaultConfig()
	cfg.Worker.Script = "/srv/scan.py"
	cfg.Pipeline.DrainInterval = Duration(80 * time.Millisecond)
	require.NoError(t, svc.Save(cfg))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `drain_interval = '80ms'`) ||
		strings.Contains(string(data), `drain_interval = "80ms"`))

	loaded, err := svc.Load()
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestValidateStructCustomRules(t *testing.T) {
	type target struct {
		Cmd  string `validate:"command"`
		File string `validate:"omitempty,file_exists"`
	}

	file := filepath.Join(t.TempDir(), "x.env")
	writeFile(t, file, "A=1\n")

	assert.NoError(t, ValidateStruct(target{Cmd: "python3 -u", File: file}))

	err := ValidateStruct(target{Cmd: "", File: file + ".missing"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a valid command line")
	assert.Contains(t, err.Error(), "does not exist")
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte(" 1m30s ")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
