package config

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordsplit/pkg/split"
)

func init() {
	log.SetLevel(log.ErrorLevel)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestDefaultConfigParams(t *testing.T) {
	c := DefaultConfig()
	if got := c.Split.Params(); !reflect.DeepEqual(got, split.DefaultParams()) {
		t.Errorf("default Params() = %+v, want %+v", got, split.DefaultParams())
	}
	if c.Split.Decoder != split.DecoderAuto {
		t.Errorf("default decoder = %q, want %q", c.Split.Decoder, split.DecoderAuto)
	}
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, `
[server]
max_variants = 5

[split]
decoder = "propagation"
second_best_handicap = 3.5
`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := DefaultConfig()
	want.Server.MaxVariants = 5
	want.Split.Decoder = split.DecoderPropagation
	want.Split.SecondBestHandicap = 3.5
	if !reflect.DeepEqual(c, want) {
		t.Errorf("LoadConfig = %+v, want %+v", c, want)
	}
}

func TestLoadConfigPartialRecovery(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, `
[server]
max_tokens = "many"
max_variants = 4

[split]
decoder = "viterbi2"
oov_weight = 500
number_backoff = false

[cli]
show_weights = false
`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	want := DefaultConfig()
	want.Server.MaxVariants = 4
	want.Split.Decoder = split.DecoderViterbi2
	want.Split.OOVWeight = 500
	want.Split.NumberBackoff = false
	want.CLI.ShowWeights = false
	if !reflect.DeepEqual(c, want) {
		t.Errorf("LoadConfig = %+v, want %+v", c, want)
	}
}

func TestLoadConfigSanitize(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	writeFile(t, path, `
[server]
max_tokens = -1
stats_interval = -5

[split]
decoder = "beam"
cache_size = -3
max_word_length = 0
`)

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	def := DefaultConfig()
	testCases := []struct {
		name string
		got  any
		want any
	}{
		{"max_tokens", c.Server.MaxTokens, def.Server.MaxTokens},
		{"stats_interval", c.Server.StatsInterval, 0},
		{"decoder", c.Split.Decoder, def.Split.Decoder},
		{"cache_size", c.Split.CacheSize, 0},
		{"max_word_length", c.Split.MaxWordLength, def.Split.MaxWordLength},
	}
	for _, tc := range testCases {
		if tc.got != tc.want {
			t.Errorf("%s = %v, want %v", tc.name, tc.got, tc.want)
		}
	}
}

func TestInitConfigCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", FileName)

	c, err := InitConfig(path)
	if err != nil {
		t.Fatalf("InitConfig failed: %v", err)
	}
	if !reflect.DeepEqual(c, DefaultConfig()) {
		t.Errorf("InitConfig = %+v, want defaults", c)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig of created file failed: %v", err)
	}
	if !reflect.DeepEqual(loaded, DefaultConfig()) {
		t.Errorf("created file decodes to %+v, want defaults", loaded)
	}
}

func TestLoadConfigWithPriorityCustomPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.toml")
	writeFile(t, path, "[cli]\ndefault_variants = 7\n")

	c, used, err := LoadConfigWithPriority(path)
	if err != nil {
		t.Fatalf("LoadConfigWithPriority failed: %v", err)
	}
	if used != path {
		t.Errorf("used path = %q, want %q", used, path)
	}
	if c.CLI.DefaultVariants != 7 {
		t.Errorf("default_variants = %d, want 7", c.CLI.DefaultVariants)
	}
}

func TestUpdate(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	c := DefaultConfig()

	variants := 2
	decoder := split.DecoderViterbi3
	if err := c.Update(path, &variants, &decoder); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if loaded.Server.MaxVariants != 2 || loaded.Split.Decoder != split.DecoderViterbi3 {
		t.Errorf("saved config has max_variants=%d decoder=%q", loaded.Server.MaxVariants, loaded.Split.Decoder)
	}
}

func TestWatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), FileName)
	if err := SaveConfig(DefaultConfig(), path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, 20*time.Millisecond, func(c *Config) { changes <- c })
	}()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)

	c := DefaultConfig()
	c.Server.MaxVariants = 6
	if err := SaveConfig(c, path); err != nil {
		t.Fatalf("SaveConfig failed: %v", err)
	}

	select {
	case got := <-changes:
		if got.Server.MaxVariants != 6 {
			t.Errorf("reloaded max_variants = %d, want 6", got.Server.MaxVariants)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after the config changed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Watch returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not stop after cancel")
	}
}
