package config

import (
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "ADNS_"

// AppConfig holds configuration values parsed from environment variables.
type AppConfig struct {
	// Env is the runtime environment, either "dev" or "prod".
	Env string `koanf:"env" validate:"required,oneof=dev prod"`

	// LogLevel controls log verbosity: "debug", "info", "warn", or "error".
	LogLevel string `koanf:"log_level" validate:"required,oneof=debug info warn error"`

	// Transport selects the listeners to run: "udp", "tcp", or "both".
	Transport string `koanf:"transport" validate:"required,oneof=udp tcp both"`

	// Interface is the IP address the server binds to.
	Interface string `koanf:"interface" validate:"required,bind_ip"`

	// Port is the network port the server binds to.
	Port int `koanf:"port" validate:"required,gte=1,lte=65535"`

	// ZoneFile is the path of the zone to serve.
	ZoneFile string `koanf:"zone_file" validate:"required"`

	// MaxConns caps concurrent TCP connections. Zero means unlimited.
	MaxConns int `koanf:"max_conns" validate:"gte=0"`
}

// ListenAddress returns the host:port the transports bind to.
func (c AppConfig) ListenAddress() string {
	return net.JoinHostPort(c.Interface, strconv.Itoa(c.Port))
}

// DEFAULT_APP_CONFIG holds the values used for anything not set in the environment.
var DEFAULT_APP_CONFIG = AppConfig{
	Env:       "prod",
	LogLevel:  "info",
	Transport: "udp",
	Interface: "0.0.0.0",
	Port:      9514,
	ZoneFile:  "/etc/adns/zone.txt",
	MaxConns:  0,
}

// validBindIP reports whether the field is a literal IPv4 or IPv6 address.
// Host names are rejected so the bound interface is unambiguous.
func validBindIP(fl validator.FieldLevel) bool {
	addr, err := netip.ParseAddr(fl.Field().String())
	return err == nil && addr.Zone() == ""
}

// envLoader loads variables starting with EnvPrefix, lowercasing the
// remainder to form the key. It is a variable so tests can replace it.
var envLoader = func(k *koanf.Koanf) error {
	return k.Load(env.Provider(".", env.Opt{
		Prefix: EnvPrefix,
		TransformFunc: func(key, value string) (string, any) {
			key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
			return key, strings.TrimSpace(value)
		},
	}), nil)
}

// defaultLoader loads DEFAULT_APP_CONFIG through the structs provider.
var defaultLoader = func(k *koanf.Koanf) error {
	return k.Load(structs.Provider(DEFAULT_APP_CONFIG, "koanf"), nil)
}

// registerValidation registers the "bind_ip" tag with the provided validator.
var registerValidation = func(v *validator.Validate) error {
	return v.RegisterValidation("bind_ip", validBindIP)
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
