// Package settings reads tool settings with viper.
package settings

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.trai.ch/pinlock/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// FileName is the settings file looked up in the working directory, without extension.
	FileName = ".pinlock"
	// EnvPrefix prefixes every environment override, e.g. PINLOCK_POLICY.
	EnvPrefix = "PINLOCK"
)

// Setting keys.
const (
	KeyLockfile   = "lockfile"
	KeyManifest   = "manifest"
	KeyReplica    = "replica"
	KeyPolicy     = "policy"
	KeyMaxDepth   = "max_depth"
	KeyHistoryDir = "history_dir"
	KeyAuditDB    = "audit_db"
	KeyLogFormat  = "log_format"
)

// Loader reads settings from a directory, the user config directory and the environment.
type Loader struct {
	// Dir is searched first. Empty means the working directory.
	Dir string
	// UserDir is searched second. Empty means $HOME/.config/pinlock.
	UserDir string
}

// Load reads settings from dir. A missing settings file yields the defaults.
func Load(dir string) (domain.Settings, error) {
	return (&Loader{Dir: dir}).Load()
}

// Load reads and validates the settings.
func (l *Loader) Load() (domain.Settings, error) {
	v := l.newViper()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return domain.Settings{}, zerr.With(zerr.Wrap(err, "failed to read settings"), "file", v.ConfigFileUsed())
		}
	}

	return decode(v)
}

func (l *Loader) newViper() *viper.Viper {
	v := viper.New()

	defaults := domain.DefaultSettings()
	v.SetDefault(KeyLockfile, defaults.LockfilePath)
	v.SetDefault(KeyManifest, "")
	v.SetDefault(KeyReplica, 0)
	v.SetDefault(KeyPolicy, defaults.Policy.String())
	v.SetDefault(KeyMaxDepth, defaults.MaxDepth)
	v.SetDefault(KeyHistoryDir, defaults.HistoryDir)
	v.SetDefault(KeyAuditDB, defaults.AuditDB)
	v.SetDefault(KeyLogFormat, "text")

	v.SetConfigName(FileName)
	v.SetConfigType("yaml")
	dir := l.Dir
	if dir == "" {
		dir = "."
	}
	v.AddConfigPath(dir)
	if userDir := l.userDir(); userDir != "" {
		v.AddConfigPath(userDir)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	return v
}

func (l *Loader) userDir() string {
	if l.UserDir != "" {
		return l.UserDir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pinlock")
}

func decode(v *viper.Viper) (domain.Settings, error) {
	s := domain.Settings{
		LockfilePath: v.GetString(KeyLockfile),
		ManifestPath: v.GetString(KeyManifest),
		MaxDepth:     v.GetInt(KeyMaxDepth),
		HistoryDir:   v.GetString(KeyHistoryDir),
		AuditDB:      v.GetString(KeyAuditDB),
	}

	policy, err := domain.ParseCyclePolicy(v.GetString(KeyPolicy))
	if err != nil {
		return domain.Settings{}, err
	}
	s.Policy = policy

	replica := v.GetInt(KeyReplica)
	if replica < 0 || replica >= domain.MaxReplicas {
		err := zerr.With(zerr.Wrap(domain.ErrReplicaOutOfRange, "replica setting out of range"), "replica", replica)
		return domain.Settings{}, zerr.With(err, "max", domain.MaxReplicas-1)
	}
	s.Replica = domain.ReplicaID(replica)

	if s.MaxDepth <= 0 {
		return domain.Settings{}, zerr.With(zerr.Wrap(domain.ErrInvalidSetting, "max_depth must be positive"), "max_depth", s.MaxDepth)
	}

	switch strings.ToLower(v.GetString(KeyLogFormat)) {
	case "", "text":
	case "json":
		s.JSONLogs = true
	default:
		return domain.Settings{}, zerr.With(zerr.Wrap(domain.ErrInvalidSetting, "unknown log format"), "log_format", v.GetString(KeyLogFormat))
	}

	if s.LockfilePath == "" {
		return domain.Settings{}, zerr.Wrap(domain.ErrInvalidSetting, "lockfile path is empty")
	}
	return s, nil
}
