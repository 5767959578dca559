// Copyright 2025 The WordSplit Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package main implements the word splitting server and CLI [DBG] application.

WordSplit finds where word boundaries should be in text typed with missing
or misplaced spaces. "hijack" may become "hi jack" and "hi jack" may become
"hijack", depending on what an n-gram frequency model says. Candidates are
ranked by a trigram weight and the input as typed is reported in place when
nothing better exists.

# Usage

Start the msgpack server with the model found next to the binary:

	wordsplit

Use a custom model and config, enable debug logs and expose metrics:

	wordsplit -model /path/to/ngrams -config ./config.toml -d -metrics :9100

Run in CLI mode for interactive testing:

	wordsplit -c -variants 5 -decoder propagation

With -d in CLI mode every input also logs the Viterbi lattice: the weight of
each end position and last word length, with the best and detour words marked.

The model is either a text file of "ngram<TAB>frequency" lines, a binary
file, or a directory of ngrams_0001.bin, ngrams_0002.bin, ... chunk files
written by ngramc.

# Configuration

Runtime configuration is a TOML file created with defaults on first run:

	[server]
	max_tokens = 64
	max_chars = 512
	max_variants = 8

	[split]
	decoder = "auto"
	cache_size = 1024

In server mode the file is watched and the splitter is rebuilt when it
changes. A file that fails to parse keeps the previous splitter.

# IPC Protocol

The server speaks MessagePack over stdin/stdout, see package server.

	{"id": "r1", "w": ["hijack"], "l": 4}
	{"id": "r1", "s": [{"w": ["hi", "jack"], "r": 1}], "c": 1, "f": true, "t": 87}
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordsplit/internal/cli"
	"github.com/bastiangx/wordsplit/internal/logger"
	"github.com/bastiangx/wordsplit/internal/metrics"
	"github.com/bastiangx/wordsplit/internal/utils"
	"github.com/bastiangx/wordsplit/pkg/config"
	"github.com/bastiangx/wordsplit/pkg/ngram"
	"github.com/bastiangx/wordsplit/pkg/server"
	"github.com/bastiangx/wordsplit/pkg/split"
)

const (
	Version = "0.1.0"
	gh      = "https://github.com/bastiangx/wordsplit"
)

type flags struct {
	modelPath   string
	configPath  string
	debug       bool
	cliMode     bool
	variants    int
	decoder     string
	metricsAddr string
}

// apply lets command line flags win over the config file.
func (f flags) apply(cfg *config.Config) {
	if f.modelPath != "" {
		cfg.Model.Path = f.modelPath
	}
	if f.decoder != "" {
		cfg.Split.Decoder = f.decoder
	}
	if f.metricsAddr != "" {
		cfg.Server.MetricsAddr = f.metricsAddr
	}
	if f.variants > 0 {
		cfg.CLI.DefaultVariants = f.variants
	}
}

// sigHandler stops background work and exits normally on OS signals.
func sigHandler(cancel context.CancelFunc) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		cancel()
		fmt.Fprintf(os.Stderr, "\nExiting...\n")
		os.Exit(0)
	}()
}

// main only manages the flow between packages.
func main() {
	var f flags
	showVersion := flag.Bool("version", false, "Show current version")
	flag.StringVar(&f.modelPath, "model", "", "Model file or chunk directory (default from config)")
	flag.StringVar(&f.configPath, "config", "", "Path to config.toml")
	flag.BoolVar(&f.debug, "d", false, "Toggle debug mode")
	flag.BoolVar(&f.cliMode, "c", false, "Run CLI -- useful for testing and debugging")
	flag.IntVar(&f.variants, "variants", 0, "Number of variants the CLI shows (default from config)")
	flag.StringVar(&f.decoder, "decoder", "", "Decoder: auto, viterbi2, viterbi3 or propagation")
	flag.StringVar(&f.metricsAddr, "metrics", "", "Address for the Prometheus endpoint, e.g. :9100")
	flag.Parse()

	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	logger.Setup(f.debug)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigHandler(cancel)

	cfg, configPath, err := config.LoadConfigWithPriority(f.configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	f.apply(cfg)

	pathResolver, err := utils.NewPathResolver()
	if err != nil {
		log.Error("Either env is not set or system is not supported")
		log.Fatalf("Failed to initialize path resolver: %v", err)
	}
	for key, value := range pathResolver.GetRuntimeInfo() {
		log.Debug("runtime", key, value)
	}
	modelPath, err := pathResolver.GetModelPath(cfg.Model.Path)
	if err != nil {
		log.Fatalf("Failed to resolve model: %v", err)
	}

	store, stats, err := ngram.Load(ctx, modelPath)
	if err != nil {
		log.Fatalf("Failed to load model: %v", err)
	}

	sp, err := split.New(store, cfg.Split.Options()...)
	if err != nil {
		log.Fatalf("Failed to create splitter: %v", err)
	}

	// CLI would be mainly used for testing and dbg purposes.
	if f.cliMode {
		log.Debug("Input info:", "variants", cfg.CLI.DefaultVariants, "decoder", sp.Decoder())
		input := cli.NewInputHandler(sp, cfg.CLI.DefaultVariants, cfg.CLI.ShowWeights)
		if err := input.Start(); err != nil {
			log.Fatalf("CLI error: %v", err)
		}
		return
	}

	var m *metrics.Metrics
	if cfg.Server.MetricsAddr != "" {
		m = metrics.New()
		m.SetModel(stats.Entries, stats.Order)
		go func() {
			if err := m.Serve(ctx, cfg.Server.MetricsAddr); err != nil {
				log.Errorf("Metrics endpoint stopped: %v", err)
			}
		}()
	}

	srv := server.NewServer(sp, cfg, configPath, m)
	if configPath != "" {
		go func() {
			err := config.Watch(ctx, configPath, config.DefaultDebounce, func(next *config.Config) {
				f.apply(next)
				_ = srv.Reload(next)
			})
			if err != nil {
				log.Warnf("Not watching %s: %v", configPath, err)
			}
		}()
	}

	showStartupInfo(modelPath, configPath, stats)

	if err := srv.Start(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printVersion() {
	l := logger.NewWithConfig(os.Stderr, "", log.InfoLevel, false, false, log.TextFormatter)

	styles := log.DefaultStyles()
	styles.Values["version"] = lipgloss.NewStyle().Bold(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	styles.Values["gh"] = lipgloss.NewStyle().Italic(true).
		Foreground(lipgloss.AdaptiveColor{Light: "#575279", Dark: "#e0def4"})
	l.SetStyles(styles)

	l.Print("")
	l.Print("[ WordSplit ] Puts the spaces where they belong")
	l.Print("", "version", Version)
	l.Print("")
	l.Print("use -h or --help to see available options")
	l.Print("Github Repo", "gh", gh)
}

// showStartupInfo logs where everything came from. It goes to stderr, stdout
// belongs to the protocol.
func showStartupInfo(modelPath, configPath string, stats ngram.LoaderStats) {
	currentLevel := log.GetLevel()
	log.SetLevel(log.InfoLevel)
	defer log.SetLevel(currentLevel)

	log.Infof("Version: %s", Version)
	log.Infof("Process ID: [ %d ]", os.Getpid())
	log.Infof("model: ( %s ) order=%d entries=%s chunks=%d in %v", modelPath, stats.Order,
		utils.FormatWithCommas(stats.Entries), stats.Chunks, stats.TimeTaken.Round(time.Millisecond))
	if configPath != "" {
		log.Infof("config: ( %s )", config.GetActiveConfigPath(configPath))
	}
	log.Info("status: ready")
}
