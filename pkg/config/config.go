/*
Package config manages the TOML config of wordsplit services.

The file has four sections: [server] limits for IPC requests, [model] where
the n-gram model lives, [split] decoder choice and weight parameters, and
[cli] defaults for the interactive mode. Missing keys keep their defaults,
and a file with type errors is recovered section by section.
*/
package config

import (
	"path/filepath"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordsplit/internal/utils"
	"github.com/bastiangx/wordsplit/pkg/split"
)

// FileName is the config file name inside the config directory.
const FileName = "config.toml"

// Config holds the entire config structure
type Config struct {
	Server ServerConfig `toml:"server"`
	Model  ModelConfig  `toml:"model"`
	Split  SplitConfig  `toml:"split"`
	CLI    CliConfig    `toml:"cli"`
}

// ServerConfig has IPC request limits.
type ServerConfig struct {
	MaxTokens     int    `toml:"max_tokens"`
	MaxChars      int    `toml:"max_chars"`
	MaxVariants   int    `toml:"max_variants"`
	MetricsAddr   string `toml:"metrics_addr"`
	StatsInterval int    `toml:"stats_interval"` // requests between stats log lines, 0 disables
}

// ModelConfig locates the n-gram model.
type ModelConfig struct {
	Path      string `toml:"path"`
	ChunkSize int    `toml:"chunk_size"`
}

// SplitConfig selects the decoder and tunes the weight model.
type SplitConfig struct {
	Decoder   string `toml:"decoder"`
	CacheSize int    `toml:"cache_size"`

	MaxWordLength          int     `toml:"max_word_length"`
	OOVWeight              float64 `toml:"oov_weight"`
	NGramBackoff           bool    `toml:"ngram_backoff"`
	BigramToUnigramBackoff float64 `toml:"bigram_to_unigram_backoff"`
	TrigramToBigramBackoff float64 `toml:"trigram_to_bigram_backoff"`
	NumberBackoff          bool    `toml:"number_backoff"`
	NumberToLengthBackoff  float64 `toml:"number_to_length_backoff"`
	MinNumberLength        int     `toml:"min_number_length"`
	QueryWordBackoff       bool    `toml:"query_word_backoff"`
	OOVQueryWordWeight     float64 `toml:"oov_query_word_weight"`
	WeightHandicap         float64 `toml:"weight_handicap"`
	SecondBestHandicap     float64 `toml:"second_best_handicap"`
}

// CliConfig holds interactive mode defaults.
type CliConfig struct {
	DefaultVariants int  `toml:"default_variants"`
	ShowWeights     bool `toml:"show_weights"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	p := split.DefaultParams()
	return &Config{
		Server: ServerConfig{
			MaxTokens:     64,
			MaxChars:      512,
			MaxVariants:   8,
			StatsInterval: 1000,
		},
		Model: ModelConfig{
			Path:      "data",
			ChunkSize: 100000,
		},
		Split: SplitConfig{
			Decoder:                split.DecoderAuto,
			CacheSize:              1024,
			MaxWordLength:          p.MaxWordLength,
			OOVWeight:              p.OOVWeight,
			NGramBackoff:           p.NGramBackoff,
			BigramToUnigramBackoff: p.BigramToUnigramBackoff,
			TrigramToBigramBackoff: p.TrigramToBigramBackoff,
			NumberBackoff:          p.NumberBackoff,
			NumberToLengthBackoff:  p.NumberToLengthBackoff,
			MinNumberLength:        p.MinNumberLength,
			QueryWordBackoff:       p.QueryWordBackoff,
			OOVQueryWordWeight:     p.OOVQueryWordWeight,
			WeightHandicap:         p.WeightHandicap,
			SecondBestHandicap:     p.SecondBestHandicap,
		},
		CLI: CliConfig{
			DefaultVariants: 3,
			ShowWeights:     true,
		},
	}
}

// Params returns the weight parameters, starting from the defaults for the
// decoder knobs the file does not expose.
func (c SplitConfig) Params() split.Params {
	p := split.DefaultParams()
	p.MaxWordLength = c.MaxWordLength
	p.OOVWeight = c.OOVWeight
	p.NGramBackoff = c.NGramBackoff
	p.BigramToUnigramBackoff = c.BigramToUnigramBackoff
	p.TrigramToBigramBackoff = c.TrigramToBigramBackoff
	p.NumberBackoff = c.NumberBackoff
	p.NumberToLengthBackoff = c.NumberToLengthBackoff
	p.MinNumberLength = c.MinNumberLength
	p.QueryWordBackoff = c.QueryWordBackoff
	p.OOVQueryWordWeight = c.OOVQueryWordWeight
	p.WeightHandicap = c.WeightHandicap
	p.SecondBestHandicap = c.SecondBestHandicap
	return p
}

// Options returns the splitter options described by c.
func (c SplitConfig) Options() []split.Option {
	return []split.Option{
		split.WithParams(c.Params()),
		split.WithDecoder(c.Decoder),
		split.WithCache(c.CacheSize),
	}
}

// GetDefaultConfigPath returns the path of config.toml in the user config dir.
func GetDefaultConfigPath() (string, error) {
	pr, err := utils.NewPathResolver()
	if err != nil {
		return "", err
	}
	return pr.GetConfigPath(FileName), nil
}

// LoadConfigWithPriority loads config with priority:
// 1. Custom path from --config flag
// 2. Default path: [UserConfigDir]/wordsplit/config.toml
// 3. Builtin defaults
func LoadConfigWithPriority(customConfigPath string) (*Config, string, error) {
	if customConfigPath != "" {
		if utils.FileExists(customConfigPath) {
			config, err := LoadConfig(customConfigPath)
			if err == nil {
				log.Debugf("Loaded config from custom path: %s", customConfigPath)
				return config, customConfigPath, nil
			}
			log.Warnf("Failed to load custom config from %s: %v. Trying default path...", customConfigPath, err)
		} else {
			log.Warnf("Custom config file not found at %s. Trying default path...", customConfigPath)
		}
	}

	defaultPath, err := GetDefaultConfigPath()
	if err != nil {
		log.Warnf("Failed to determine default config path: %v. Using built-in defaults...", err)
		return DefaultConfig(), "", nil
	}
	config, err := InitConfig(defaultPath)
	if err != nil {
		log.Warnf("Failed to load/create config at %s: %v. Using builtin defaults...", defaultPath, err)
		return DefaultConfig(), "", nil
	}
	log.Debugf("Loaded config from default path: %s", defaultPath)
	return config, defaultPath, nil
}

// InitConfig loads config from file or creates default if missing
func InitConfig(configPath string) (*Config, error) {
	if !utils.FileExists(configPath) {
		if err := utils.EnsureDir(filepath.Dir(configPath)); err != nil {
			return nil, err
		}
		config := DefaultConfig()
		if err := SaveConfig(config, configPath); err != nil {
			return nil, err
		}
		log.Debugf("Created default config file at: %s", configPath)
		return config, nil
	}
	return LoadConfig(configPath)
}

// LoadConfig loads from a TOML file. Values that fail validation are reset
// to their defaults.
func LoadConfig(configPath string) (*Config, error) {
	config := DefaultConfig()
	if err := utils.LoadTOMLFile(configPath, config); err != nil {
		if config, err = tryPartialParse(configPath); err != nil {
			return nil, err
		}
	}
	config.sanitize()
	return config, nil
}

// tryPartialParse recovers the sections of a file that the struct decoder rejected.
func tryPartialParse(configPath string) (*Config, error) {
	config := DefaultConfig()

	raw, err := utils.ParseTOMLWithRecovery(configPath)
	if err != nil {
		log.Warnf("%v. Using all defaults.", err)
		return config, nil
	}

	if section, ok := utils.ExtractSection(raw, "server"); ok {
		extractServerConfig(section, &config.Server)
	}
	if section, ok := utils.ExtractSection(raw, "model"); ok {
		extractModelConfig(section, &config.Model)
	}
	if section, ok := utils.ExtractSection(raw, "split"); ok {
		extractSplitConfig(section, &config.Split)
	}
	if section, ok := utils.ExtractSection(raw, "cli"); ok {
		extractCliConfig(section, &config.CLI)
	}
	return config, nil
}

func extractServerConfig(data map[string]any, server *ServerConfig) {
	if val, ok := utils.ExtractInt(data, "max_tokens"); ok {
		server.MaxTokens = val
	}
	if val, ok := utils.ExtractInt(data, "max_chars"); ok {
		server.MaxChars = val
	}
	if val, ok := utils.ExtractInt(data, "max_variants"); ok {
		server.MaxVariants = val
	}
	if val, ok := utils.ExtractString(data, "metrics_addr"); ok {
		server.MetricsAddr = val
	}
	if val, ok := utils.ExtractInt(data, "stats_interval"); ok {
		server.StatsInterval = val
	}
}

func extractModelConfig(data map[string]any, model *ModelConfig) {
	if val, ok := utils.ExtractString(data, "path"); ok {
		model.Path = val
	}
	if val, ok := utils.ExtractInt(data, "chunk_size"); ok {
		model.ChunkSize = val
	}
}

func extractSplitConfig(data map[string]any, s *SplitConfig) {
	if val, ok := utils.ExtractString(data, "decoder"); ok {
		s.Decoder = val
	}
	ints := map[string]*int{
		"cache_size":        &s.CacheSize,
		"max_word_length":   &s.MaxWordLength,
		"min_number_length": &s.MinNumberLength,
	}
	for key, dst := range ints {
		if val, ok := utils.ExtractInt(data, key); ok {
			*dst = val
		}
	}
	floats := map[string]*float64{
		"oov_weight":                &s.OOVWeight,
		"bigram_to_unigram_backoff": &s.BigramToUnigramBackoff,
		"trigram_to_bigram_backoff": &s.TrigramToBigramBackoff,
		"number_to_length_backoff":  &s.NumberToLengthBackoff,
		"oov_query_word_weight":     &s.OOVQueryWordWeight,
		"weight_handicap":           &s.WeightHandicap,
		"second_best_handicap":      &s.SecondBestHandicap,
	}
	for key, dst := range floats {
		if val, ok := utils.ExtractFloat(data, key); ok {
			*dst = val
		}
	}
	bools := map[string]*bool{
		"ngram_backoff":      &s.NGramBackoff,
		"number_backoff":     &s.NumberBackoff,
		"query_word_backoff": &s.QueryWordBackoff,
	}
	for key, dst := range bools {
		if val, ok := utils.ExtractBool(data, key); ok {
			*dst = val
		}
	}
}

func extractCliConfig(data map[string]any, cli *CliConfig) {
	if val, ok := utils.ExtractInt(data, "default_variants"); ok {
		cli.DefaultVariants = val
	}
	if val, ok := utils.ExtractBool(data, "show_weights"); ok {
		cli.ShowWeights = val
	}
}

// sanitize resets out of range values to their defaults.
func (c *Config) sanitize() {
	def := DefaultConfig()
	fix := func(name string, val *int, fallback int) {
		if *val <= 0 {
			log.Warnf("Invalid %s %d, using %d", name, *val, fallback)
			*val = fallback
		}
	}
	fix("server.max_tokens", &c.Server.MaxTokens, def.Server.MaxTokens)
	fix("server.max_chars", &c.Server.MaxChars, def.Server.MaxChars)
	fix("server.max_variants", &c.Server.MaxVariants, def.Server.MaxVariants)
	fix("model.chunk_size", &c.Model.ChunkSize, def.Model.ChunkSize)
	fix("split.max_word_length", &c.Split.MaxWordLength, def.Split.MaxWordLength)
	fix("split.min_number_length", &c.Split.MinNumberLength, def.Split.MinNumberLength)
	fix("cli.default_variants", &c.CLI.DefaultVariants, def.CLI.DefaultVariants)

	if c.Server.StatsInterval < 0 {
		c.Server.StatsInterval = 0
	}
	if c.Split.CacheSize < 0 {
		log.Warnf("Invalid split.cache_size %d, disabling the cache", c.Split.CacheSize)
		c.Split.CacheSize = 0
	}
	if _, err := split.DecoderByName(c.Split.Decoder, 3); err != nil {
		log.Warnf("%v, using %s", err, def.Split.Decoder)
		c.Split.Decoder = def.Split.Decoder
	}
	if c.Model.Path == "" {
		c.Model.Path = def.Model.Path
	}
}

// GetActiveConfigPath returns the absolute path of loaded config file
func GetActiveConfigPath(configPath string) string {
	if configPath == "" {
		if defaultPath, err := GetDefaultConfigPath(); err == nil {
			return defaultPath
		}
		return "unknown"
	}
	return utils.GetAbsolutePath(configPath)
}

// SaveConfig saves into a TOML file
func SaveConfig(config *Config, configPath string) error {
	return utils.SaveTOMLFile(config, configPath)
}

// Update changes the given values and saves the file. Nil values are kept.
func (c *Config) Update(configPath string, maxVariants *int, decoder *string) error {
	if maxVariants != nil {
		c.Server.MaxVariants = *maxVariants
	}
	if decoder != nil {
		c.Split.Decoder = *decoder
	}
	c.sanitize()
	return SaveConfig(c, configPath)
}
