package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// HomeEnv overrides the capture home directory.
const HomeEnv = "CAPTURE_HOME"

// Config holds application configuration.
type Config struct {
	// LogCapacity is the number of entries the diagnostic log retains
	LogCapacity int `json:"log_capacity"`

	// LogFile is where forwarded log lines are written. Empty means stderr.
	// Relative paths are resolved against the capture home directory.
	LogFile string `json:"log_file,omitempty"`

	// LogLevel is the minimum level forwarded to the log sink: debug, info or error
	LogLevel string `json:"log_level,omitempty"`

	// LogMaxSizeMB rotates LogFile once it reaches this size
	LogMaxSizeMB int `json:"log_max_size_mb,omitempty"`

	// LogMaxBackups is the number of rotated log files kept
	LogMaxBackups int `json:"log_max_backups,omitempty"`

	// WebBind is the interface the web server listens on
	WebBind string `json:"web_bind,omitempty"`

	// WebPort is the port the web server listens on
	WebPort int `json:"web_port,omitempty"`

	// MaxUploadMB caps the size of one multipart capture upload
	MaxUploadMB int `json:"max_upload_mb,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default (unlimited).
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`

	// DisabledTools is a list of MCP tool names to exclude from registration.
	DisabledTools []string `json:"disabled_tools,omitempty"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		LogCapacity:   500,
		LogLevel:      "info",
		LogMaxSizeMB:  10,
		LogMaxBackups: 3,
		WebBind:       "127.0.0.1",
		WebPort:       8765,
		MaxUploadMB:   64,
	}
}

// Home returns the capture home directory, respecting CAPTURE_HOME.
func Home() (string, error) {
	if h := strings.TrimSpace(os.Getenv(HomeEnv)); h != "" {
		return h, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".capture"), nil
}

// Load loads configuration from baseDir/config.json.
// Returns default config if the file doesn't exist.
func Load(baseDir string) (*Config, error) {
	return loadFile(filepath.Join(baseDir, "config.json"))
}

// LoadWithRepo loads configuration from both the home directory and the nearest
// .capture/config.json found walking upward from startDir. Repo config takes
// precedence for scalar values; arrays are merged (deduplicated).
func LoadWithRepo(globalDir, startDir string) (*Config, error) {
	global, err := loadFileRaw(filepath.Join(globalDir, "config.json"))
	if err != nil {
		return nil, err
	}

	repo, err := loadFileRaw(FindRepoConfig(startDir))
	if err != nil {
		return nil, err
	}

	return Merge(Merge(DefaultConfig(), global), repo), nil
}

// FindRepoConfig walks upward from startDir to find the nearest .capture/config.json.
// Returns the path if found, or empty string if not found.
func FindRepoConfig(startDir string) string {
	dir := startDir
	for {
		configPath := filepath.Join(dir, ".capture", "config.json")
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// ResolveLogFile returns LogFile made absolute against baseDir.
func (c *Config) ResolveLogFile(baseDir string) string {
	if c.LogFile == "" || filepath.IsAbs(c.LogFile) {
		return c.LogFile
	}
	return filepath.Join(baseDir, c.LogFile)
}

// MaxUploadBytes returns MaxUploadMB in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	if configPath == "" {
		return &Config{}, nil
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadFile loads configuration from a specific file path.
// Returns default config if the file doesn't exist.
func loadFile(configPath string) (*Config, error) {
	cfg, err := loadFileRaw(configPath)
	if err != nil {
		return nil, err
	}
	return Merge(DefaultConfig(), cfg), nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; arrays are merged and deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{
		LogCapacity:    firstInt(overlay.LogCapacity, base.LogCapacity),
		LogFile:        firstString(overlay.LogFile, base.LogFile),
		LogLevel:       firstString(overlay.LogLevel, base.LogLevel),
		LogMaxSizeMB:   firstInt(overlay.LogMaxSizeMB, base.LogMaxSizeMB),
		LogMaxBackups:  firstInt(overlay.LogMaxBackups, base.LogMaxBackups),
		WebBind:        firstString(overlay.WebBind, base.WebBind),
		WebPort:        firstInt(overlay.WebPort, base.WebPort),
		MaxUploadMB:    firstInt(overlay.MaxUploadMB, base.MaxUploadMB),
		DBMaxOpenConns: firstInt(overlay.DBMaxOpenConns, base.DBMaxOpenConns),
		DBMaxIdleConns: firstInt(overlay.DBMaxIdleConns, base.DBMaxIdleConns),
	}

	result.DisabledTools = mergeStringSlice(base.DisabledTools, overlay.DisabledTools)

	return result
}

func firstInt(overlay, base int) int {
	if overlay != 0 {
		return overlay
	}
	return base
}

func firstString(overlay, base string) string {
	if strings.TrimSpace(overlay) != "" {
		return overlay
	}
	return base
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range append(append([]string{}, a...), b...) {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
