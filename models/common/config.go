package common

import (
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/artefactual-labs/scope-services/util"
	"github.com/op/go-logging"
	"github.com/spf13/viper"
)

// SSCredentials holds the API credentials for one Archivematica
// Storage Service host. The map key in Config.SSHosts is the host's
// base URL (scheme://host[:port]) without credentials.
type SSCredentials struct {
	User   string
	Secret string
}

// S3Credentials holds connection info for the object store where
// uploaded DIP packages live.
type S3Credentials struct {
	Host      string
	KeyID     string
	SecretKey string
	UseSSL    bool
}

type Config struct {
	ConfigName     string
	DatabasePath   string
	ESURLs         []string
	LogDir         string
	LogLevel       logging.Level
	MaxAttempts    int
	MediaDir       string
	NsqLookupd     string
	NsqURL         string
	RedisDefaultDB int
	RedisPassword  string
	RedisURL       string
	RequeueTimeout time.Duration
	S3Credentials  S3Credentials
	SSHosts        map[string]SSCredentials
	UploadsBucket  string
	WebhookAddr    string
	WebhookToken   string
}

var logLevels = map[string]logging.Level{
	"CRITICAL": logging.CRITICAL,
	"ERROR":    logging.ERROR,
	"WARNING":  logging.WARNING,
	"NOTICE":   logging.NOTICE,
	"INFO":     logging.INFO,
	"DEBUG":    logging.DEBUG,
}

// NewConfig returns a new config based on ENV vars SCOPE_CONFIG_DIR
// and SCOPE_ENV.
func NewConfig() *Config {
	config := loadConfig()
	config.expandPaths()
	config.makeDirs()
	return config
}

func loadConfig() *Config {
	configDir, envName := getEnvVars()
	v := viper.New()
	v.AddConfigPath(configDir)
	v.SetConfigName(".env." + envName)
	v.SetConfigType("env")
	err := v.ReadInConfig()
	if err != nil {
		panic(fmt.Errorf("Fatal error config file: %s \n", err))
	}
	ssHosts, err := ParseSSHosts(splitAndTrim(v.GetString("SS_HOSTS")))
	if err != nil {
		panic(err)
	}
	return &Config{
		ConfigName:     envName,
		DatabasePath:   v.GetString("DATABASE_PATH"),
		ESURLs:         splitAndTrim(v.GetString("ES_URLS")),
		LogDir:         v.GetString("LOG_DIR"),
		LogLevel:       logLevels[v.GetString("LOG_LEVEL")],
		MaxAttempts:    v.GetInt("MAX_ATTEMPTS"),
		MediaDir:       v.GetString("MEDIA_DIR"),
		NsqLookupd:     v.GetString("NSQ_LOOKUPD"),
		NsqURL:         v.GetString("NSQ_URL"),
		RedisDefaultDB: v.GetInt("REDIS_DEFAULT_DB"),
		RedisPassword:  v.GetString("REDIS_PASSWORD"),
		RedisURL:       v.GetString("REDIS_URL"),
		RequeueTimeout: v.GetDuration("REQUEUE_TIMEOUT"),
		S3Credentials: S3Credentials{
			Host:      v.GetString("S3_HOST"),
			KeyID:     v.GetString("S3_KEY"),
			SecretKey: v.GetString("S3_SECRET"),
			UseSSL:    v.GetBool("S3_USE_SSL"),
		},
		SSHosts:       ssHosts,
		UploadsBucket: v.GetString("UPLOADS_BUCKET"),
		WebhookAddr:   v.GetString("WEBHOOK_ADDR"),
		WebhookToken:  v.GetString("WEBHOOK_TOKEN"),
	}
}

// ParseSSHosts transforms a list of RFC-1738 formatted URLs with
// embedded credentials into a map of base URL to SSCredentials.
// Malformed URLs and URLs missing credentials are configuration
// errors, so this returns an error rather than skipping them.
func ParseSSHosts(hosts []string) (map[string]SSCredentials, error) {
	parsed := make(map[string]SSCredentials, len(hosts))
	for _, host := range hosts {
		parts, err := url.Parse(host)
		if err != nil || parts.Scheme == "" || parts.Hostname() == "" {
			return nil, fmt.Errorf("Malformed SS host: %s", host)
		}
		password, _ := parts.User.Password()
		if parts.User.Username() == "" || password == "" {
			return nil, fmt.Errorf("Missing credentials for SS host: %s", host)
		}
		baseURL := fmt.Sprintf("%s://%s", parts.Scheme, parts.Hostname())
		if parts.Port() != "" {
			baseURL = fmt.Sprintf("%s:%s", baseURL, parts.Port())
		}
		parsed[baseURL] = SSCredentials{
			User:   parts.User.Username(),
			Secret: password,
		}
	}
	return parsed, nil
}

func splitAndTrim(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

func getEnvVars() (string, string) {
	configDir := getRequiredEnvVar("SCOPE_CONFIG_DIR")
	envName := getRequiredEnvVar("SCOPE_ENV")
	return configDir, envName
}

func getRequiredEnvVar(varName string) string {
	value := os.Getenv(varName)
	if value == "" {
		panic(fmt.Sprintf("Required env var %s not set", varName))
	}
	return value
}

// Expand ~ to home dir in path settings.
func (c *Config) expandPaths() {
	c.LogDir = expandPath(c.LogDir)
	c.MediaDir = expandPath(c.MediaDir)
	c.DatabasePath = expandPath(c.DatabasePath)
}

func expandPath(dirName string) string {
	dir, err := util.ExpandTilde(dirName)
	if err != nil {
		panic(err)
	}
	return dir
}

func (c *Config) makeDirs() {
	dirs := []string{
		c.LogDir,
		c.MediaDir,
	}
	for _, dir := range dirs {
		err := os.MkdirAll(dir, 0755)
		if err != nil {
			panic(err)
		}
	}
}
