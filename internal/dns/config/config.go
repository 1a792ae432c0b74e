package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// LogFile, when set, also writes JSON logs to a rotating file.
	LogFile string `koanf:"log_file"`

	// Host is the IP address the DNS server binds to.
	Host string `koanf:"host" validate:"required,ip"`

	// Port is the UDP port the DNS server binds to.
	Port int `koanf:"port" validate:"required,gte=1,lte=65535"`

	// DB is the snapshot path for persisted records.
	DB string `koanf:"db" validate:"required"`

	// StoreBackend selects the snapshot format: "json" or "bolt".
	StoreBackend string `koanf:"store_backend" validate:"required,oneof=json bolt"`

	MaxWorkers     int `koanf:"max_workers" validate:"required,gte=1"`
	RDataCacheSize int `koanf:"rdata_cache_size" validate:"gte=0"`

	// SeedDir holds zone files loaded into the store at startup. Empty disables seeding.
	SeedDir string `koanf:"seed_dir"`

	// AdminAddr is the listen address of the HTTP admin API. Empty disables it.
	AdminAddr string `koanf:"admin_addr" validate:"omitempty,listen_addr"`

	// Interactive starts the operator shell on stdin.
	Interactive bool `koanf:"interactive"`
}

// DEFAULT_APP_CONFIG defines the default application configuration settings for the DNS service.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:            "prod",
	LogLevel:       "info",
	Host:           "0.0.0.0",
	Port:           53,
	DB:             "dns_records.json",
	StoreBackend:   "json",
	MaxWorkers:     256,
	RDataCacheSize: 1024,
}

// ListenAddr joins Host and Port for the DNS transport.
func (c *AppConfig) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// validListenAddr accepts "ip:port" or ":port" with a port between 1 and 65535.
func validListenAddr(fl validator.FieldLevel) bool {
	host, port, err := net.SplitHostPort(fl.Field().String())
	if err != nil || port == "" {
		return false
	}
	if host != "" && net.ParseIP(host) == nil {
		return false
	}
	portNum, err := strconv.ParseUint(port, 10, 16)
	return err == nil && portNum > 0
}

// envLoader loads environment variables with the prefix "DNS_", lowercasing
// the keys and removing the prefix. It can be replaced in tests.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: "DNS_",
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, "DNS_"))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "listen_addr" tag with the provided validator.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("listen_addr", validListenAddr)
}

// Load parses environment variables and returns an AppConfig instance.
// It applies default values and runs validation automatically.
func Load() (*AppConfig, error) {
	k := koanf.New(".")

	err := defaultLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading default config: %w", err)
	}

	err = envLoader(k)
	if err != nil {
		return nil, fmt.Errorf("error loading env: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("error unmarshalling config: %w", err)
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	err = registerValidation(validate)
	if err != nil {
		return nil, fmt.Errorf("error registering validation: %w", err)
	}

	err = validate.Struct(&cfg)
	if err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	return &cfg, nil
}
