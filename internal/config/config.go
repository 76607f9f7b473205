// Package config implements the server's configuration surface (spec §4.5,
// component C8): a small, immutable-after-startup set of values read once
// from flags, environment, and an optional config file, in that precedence
// order, using the teacher's viper/pflag combination.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully validated, immutable configuration surface.
type Config struct {
	Port          int
	TokenLifetime time.Duration
	PurgeInterval time.Duration
	Dump          bool

	// RedisAddr, when non-empty, enables the optional token-event mirror
	// (SPEC_FULL.md domain stack). Off by default.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SealEnabled wraps issued identifiers in a PASETO v2 local token when
	// true. Off by default; §9(c) leaves the wire format unfixed.
	SealEnabled bool

	// DigestIssuer names the dump-digest signer; the signing secret itself
	// is a process-local random value unless VaultAddr is set.
	DigestIssuer string

	// VaultAddr, when non-empty, enables fetching a stable dump-digest
	// signing seed from Vault's KV engine instead of a fresh random one
	// each startup. Off by default.
	VaultAddr       string
	VaultToken      string
	VaultSecretPath string
	VaultField      string
}

const (
	minPort = 1
	maxPort = 65535

	minLifetime = 30 * time.Minute
	maxLifetime = 96 * time.Hour

	minPurgeInterval = 1 * time.Second
	maxPurgeInterval = 90 * time.Minute
)

// Load reads configuration from CLI flags (args, typically os.Args[1:]),
// environment variables, and an optional ./config.yaml, applying the
// teacher's SetDefault/AutomaticEnv pattern, then validates ranges per
// spec §4.5. A validation failure is the configuration-error path in
// spec §7 ("fatal; the process exits non-zero before accepting
// connections") — callers should treat a non-nil error as fatal.
func Load(args []string) (*Config, error) {
	v := viper.New()

	v.SetDefault("port", 3666)
	v.SetDefault("token_lifetime", "2h")
	v.SetDefault("purge_interval", "1m")
	v.SetDefault("dump", false)
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("seal_enabled", false)
	v.SetDefault("digest_issuer", "tokserver")
	v.SetDefault("vault.addr", "")
	v.SetDefault("vault.token", "")
	v.SetDefault("vault.secret_path", "secret/data/tokserver")
	v.SetDefault("vault.field", "digest_seed")

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("tokserver")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return nil, fmt.Errorf("config: read config file: %w", err)
		}
	}

	flags := pflag.NewFlagSet("tokserver", pflag.ContinueOnError)
	flags.Int("port", v.GetInt("port"), "TCP port to bind")
	flags.Duration("token-lifetime", v.GetDuration("token_lifetime"), "token TTL (30m..96h)")
	flags.Duration("purge-interval", v.GetDuration("purge_interval"), "purge sweep period (1s..90m)")
	flags.Bool("dump", v.GetBool("dump"), "enable HEAD /dump")
	flags.String("redis-addr", v.GetString("redis.addr"), "optional Redis address for the token-event mirror")
	flags.String("redis-password", v.GetString("redis.password"), "Redis password")
	flags.Int("redis-db", v.GetInt("redis.db"), "Redis logical DB index")
	flags.Bool("seal-enabled", v.GetBool("seal_enabled"), "wrap issued tokens in a PASETO v2 local token")
	flags.String("digest-issuer", v.GetString("digest_issuer"), "issuer claim for the signed dump digest")
	flags.String("vault-addr", v.GetString("vault.addr"), "optional Vault address for the dump-digest signing seed")
	flags.String("vault-token", v.GetString("vault.token"), "Vault token")
	flags.String("vault-secret-path", v.GetString("vault.secret_path"), "Vault KV path holding the signing seed")
	flags.String("vault-field", v.GetString("vault.field"), "field within the Vault secret holding the signing seed")

	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("config: parse flags: %w", err)
	}
	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("config: bind flags: %w", err)
	}

	cfg := &Config{
		Port:          v.GetInt("port"),
		TokenLifetime: v.GetDuration("token-lifetime"),
		PurgeInterval: v.GetDuration("purge-interval"),
		Dump:          v.GetBool("dump"),
		RedisAddr:     v.GetString("redis-addr"),
		RedisPassword: v.GetString("redis-password"),
		RedisDB:       v.GetInt("redis-db"),

		SealEnabled:  v.GetBool("seal-enabled"),
		DigestIssuer: v.GetString("digest-issuer"),

		VaultAddr:       v.GetString("vault-addr"),
		VaultToken:      v.GetString("vault-token"),
		VaultSecretPath: v.GetString("vault-secret-path"),
		VaultField:      v.GetString("vault-field"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Port < minPort || c.Port > maxPort {
		return fmt.Errorf("config: port %d out of range [%d, %d]", c.Port, minPort, maxPort)
	}
	if c.TokenLifetime < minLifetime || c.TokenLifetime > maxLifetime {
		return fmt.Errorf("config: token_lifetime %s out of range [%s, %s]", c.TokenLifetime, minLifetime, maxLifetime)
	}
	if c.PurgeInterval < minPurgeInterval || c.PurgeInterval > maxPurgeInterval {
		return fmt.Errorf("config: purge_interval %s out of range [%s, %s]", c.PurgeInterval, minPurgeInterval, maxPurgeInterval)
	}
	return nil
}
