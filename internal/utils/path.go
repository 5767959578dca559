package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/bastiangx/wordsplit/pkg/ngram"
)

// AppName names the config directory.
const AppName = "wordsplit"

// PathResolver finds the model and the config file relative to the binary,
// the working directory and the user config directory.
type PathResolver struct {
	executablePath string
	executableDir  string
	homeDir        string
	configDir      string
}

// NewPathResolver inspects the running binary and the user environment.
func NewPathResolver() (*PathResolver, error) {
	execPath, err := os.Executable()
	if err != nil {
		return nil, err
	}
	execPath, err = filepath.EvalSymlinks(execPath)
	if err != nil {
		return nil, err
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		log.Warnf("Could not determine home directory: %v", err)
		homeDir = os.TempDir()
	}

	pr := &PathResolver{
		executablePath: execPath,
		executableDir:  filepath.Dir(execPath),
		homeDir:        homeDir,
		configDir:      configDirFor(runtime.GOOS, homeDir, os.Getenv),
	}
	log.Debugf("PathResolver initialized: exec=%s, configDir=%s", execPath, pr.configDir)
	return pr, nil
}

func configDirFor(goos, homeDir string, getenv func(string) string) string {
	switch goos {
	case "darwin":
		return filepath.Join(homeDir, ".config", AppName)
	case "linux", "freebsd", "openbsd", "netbsd":
		if configHome := getenv("XDG_CONFIG_HOME"); configHome != "" {
			return filepath.Join(configHome, AppName)
		}
		return filepath.Join(homeDir, ".config", AppName)
	case "windows":
		if appData := getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, AppName)
		}
		return filepath.Join(homeDir, "AppData", "Roaming", AppName)
	default:
		return filepath.Join(homeDir, "."+AppName)
	}
}

// ModelCandidates lists where a model named path may live, most specific first.
func (pr *PathResolver) ModelCandidates(path string) []string {
	var candidates []string
	if filepath.IsAbs(path) {
		return append(candidates, path)
	}
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, path))
	}
	return append(candidates,
		filepath.Join(pr.executableDir, path),
		filepath.Join(pr.executableDir, "data"),
		filepath.Join(filepath.Dir(pr.executableDir), "data"),
		filepath.Join(pr.configDir, "data"),
	)
}

// GetModelPath returns the first candidate that holds a model: a directory
// with chunk files or a file in a known format.
func (pr *PathResolver) GetModelPath(path string) (string, error) {
	for _, candidate := range pr.ModelCandidates(path) {
		if IsValidModelPath(candidate) {
			log.Debugf("Found model at %s", candidate)
			return candidate, nil
		}
		log.Debugf("Model candidate not valid: %s", candidate)
	}
	return "", fmt.Errorf("%w: no model found for %q", ngram.ErrModelUnavailable, path)
}

// IsValidModelPath reports whether path is a chunk directory or a model file.
func IsValidModelPath(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	if info.IsDir() {
		return len(listChunkFiles(path)) > 0
	}
	format, err := ngram.DetectFileFormat(path)
	return err == nil && format != ngram.FormatUnknown
}

func listChunkFiles(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, ngram.ChunkPrefix+"*"+ngram.ChunkExt))
	if err != nil {
		return nil
	}
	return matches
}

// GetConfigPath returns filename inside the first writable config location.
func (pr *PathResolver) GetConfigPath(filename string) string {
	dirs := []string{
		pr.configDir,
		filepath.Join(pr.homeDir, "."+AppName),
		filepath.Join(os.TempDir(), AppName),
		pr.executableDir,
	}
	for i, dir := range dirs {
		if CheckDirStatus(dir).Writable {
			path := filepath.Join(dir, filename)
			if i > 0 {
				log.Warnf("Using fallback config location: %s", path)
			}
			return path
		}
	}
	path := filepath.Join(os.TempDir(), filename)
	log.Warnf("Using temporary config file: %s", path)
	return path
}

// GetRuntimeInfo describes the environment paths are resolved in.
func (pr *PathResolver) GetRuntimeInfo() map[string]string {
	cwd, _ := os.Getwd()
	info := map[string]string{
		"executable_path": pr.executablePath,
		"current_dir":     cwd,
		"config_dir":      pr.configDir,
		"os":              runtime.GOOS,
		"arch":            runtime.GOARCH,
	}
	for _, env := range []string{"HOME", "XDG_CONFIG_HOME", "APPDATA"} {
		if value := os.Getenv(env); value != "" {
			info["env_"+strings.ToLower(env)] = value
		}
	}
	return info
}
