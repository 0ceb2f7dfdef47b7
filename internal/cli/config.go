package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/indexkeeper/internal/identity"
	"github.com/mesh-intelligence/indexkeeper/internal/paths"
	"github.com/mesh-intelligence/indexkeeper/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	envPrefix      = "INDEXKEEPER"
)

// Config keys.
const (
	cfgKeyBackend      = "backend"
	cfgKeyDataDir      = "data_dir"
	cfgKeyDSN          = "dsn"
	cfgKeyCatalog      = "catalog"
	cfgKeyServerURL    = "server_url"
	cfgKeyListenAddr   = "listen_addr"
	cfgKeyLogMode      = "log_mode"
	cfgKeyOwner        = "owner"
	cfgKeyDisplayName  = "display_name"
	cfgKeyAvatarRef    = "avatar_ref"
	cfgKeyClientID     = "oauth.client_id"
	cfgKeyClientSecret = "oauth.client_secret"
	cfgKeyTokenURL     = "oauth.token_url"
	cfgKeyRedirectURL  = "oauth.redirect_url"
	cfgKeyCORSOrigins  = "cors_origins"
)

const (
	defaultServerURL  = "http://localhost:8080"
	defaultListenAddr = ":8080"
	defaultLogMode    = "production"
)

// configFile is the structure written to config.yaml by init.
type configFile struct {
	Backend     string      `yaml:"backend"`
	DataDir     string      `yaml:"data_dir,omitempty"`
	DSN         string      `yaml:"dsn,omitempty"`
	Catalog     string      `yaml:"catalog,omitempty"`
	ServerURL   string      `yaml:"server_url"`
	ListenAddr  string      `yaml:"listen_addr"`
	LogMode     string      `yaml:"log_mode"`
	Owner       string      `yaml:"owner,omitempty"`
	DisplayName string      `yaml:"display_name,omitempty"`
	AvatarRef   string      `yaml:"avatar_ref,omitempty"`
	OAuth       oauthConfig `yaml:"oauth,omitempty"`
	CORSOrigins []string    `yaml:"cors_origins,omitempty"`
}

type oauthConfig struct {
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
	TokenURL     string `yaml:"token_url,omitempty"`
	RedirectURL  string `yaml:"redirect_url,omitempty"`
}

// settings is the resolved configuration shared by all subcommands.
type settings struct {
	configDir   string
	dataDir     string
	backend     string
	dsn         string
	catalogPath string
	serverURL   string
	listenAddr  string
	logMode     string
	owner       identity.Identity
	oauth       identity.OAuth2Config
	corsOrigins []string
}

// storeConfig is the record store configuration.
func (s settings) storeConfig() types.Config {
	return types.Config{Backend: s.backend, DataDir: s.dataDir, DSN: s.dsn}
}

// loadConfig reads config.yaml from configDir with INDEXKEEPER_* environment
// overrides. A missing config.yaml is not an error.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, types.BackendSQLite)
	v.SetDefault(cfgKeyServerURL, defaultServerURL)
	v.SetDefault(cfgKeyListenAddr, defaultListenAddr)
	v.SetDefault(cfgKeyLogMode, defaultLogMode)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// resolveSettings combines flags and the loaded config.
func resolveSettings(v *viper.Viper) (settings, error) {
	configDir, err := paths.ResolveConfigDir(flags.configDir)
	if err != nil {
		return settings{}, err
	}
	dataDir, err := paths.ResolveDataDir(flags.dataDir, v.GetString(cfgKeyDataDir))
	if err != nil {
		return settings{}, err
	}
	owner := flags.owner
	if owner == "" {
		owner = v.GetString(cfgKeyOwner)
	}
	return settings{
		configDir:   configDir,
		dataDir:     dataDir,
		backend:     v.GetString(cfgKeyBackend),
		dsn:         v.GetString(cfgKeyDSN),
		catalogPath: paths.ResolveCatalog(v.GetString(cfgKeyCatalog), dataDir),
		serverURL:   v.GetString(cfgKeyServerURL),
		listenAddr:  v.GetString(cfgKeyListenAddr),
		logMode:     v.GetString(cfgKeyLogMode),
		owner: identity.Identity{
			OwnerID:     owner,
			DisplayName: v.GetString(cfgKeyDisplayName),
			AvatarRef:   v.GetString(cfgKeyAvatarRef),
		},
		oauth: identity.OAuth2Config{
			ClientID:     v.GetString(cfgKeyClientID),
			ClientSecret: v.GetString(cfgKeyClientSecret),
			TokenURL:     v.GetString(cfgKeyTokenURL),
			RedirectURL:  v.GetString(cfgKeyRedirectURL),
		},
		corsOrigins: v.GetStringSlice(cfgKeyCORSOrigins),
	}, nil
}

// writeConfigIfMissing creates config.yaml with default values if the file
// does not exist. If it already exists, the function returns nil.
func writeConfigIfMissing(path, dataDir string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	cfg := configFile{
		Backend:    types.BackendSQLite,
		DataDir:    dataDir,
		ServerURL:  defaultServerURL,
		ListenAddr: defaultListenAddr,
		LogMode:    defaultLogMode,
	}
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, data, 0o644)
}
