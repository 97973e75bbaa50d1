package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/etnz/termux-create-package/manifest"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// envPrefix is the prefix of the environment variables overriding flags,
// e.g. TERMUX_CREATE_PACKAGE_OUTPUT_DIR for --output-dir.
const envPrefix = "TERMUX_CREATE_PACKAGE"

// Config is the resolved configuration of a build.
type Config struct {
	Manifest       string
	Prefix         string
	OutputDir      string
	SignKey        string
	SignPassphrase string
	Verbose        bool
	// ModTime is the archive timestamp, taken from SOURCE_DATE_EPOCH when set.
	ModTime time.Time
}

// loadConfig merges flags, environment variables and defaults. An explicitly
// set flag wins over the environment, which wins over the flag default.
func loadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.BindPFlags(flags); err != nil {
		return nil, fmt.Errorf("binding flags: %w", err)
	}
	if err := v.BindEnv("source-date-epoch", "SOURCE_DATE_EPOCH"); err != nil {
		return nil, fmt.Errorf("binding SOURCE_DATE_EPOCH: %w", err)
	}
	v.SetDefault("prefix", manifest.DefaultPrefix)
	v.SetDefault("output-dir", ".")

	cfg := &Config{
		Manifest:       v.GetString("manifest"),
		Prefix:         v.GetString("prefix"),
		OutputDir:      v.GetString("output-dir"),
		SignKey:        v.GetString("sign-key"),
		SignPassphrase: v.GetString("sign-passphrase"),
		Verbose:        v.GetBool("verbose"),
	}

	if epoch := v.GetString("source-date-epoch"); epoch != "" {
		secs, err := strconv.ParseInt(epoch, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid SOURCE_DATE_EPOCH %q: %w", epoch, err)
		}
		cfg.ModTime = time.Unix(secs, 0).UTC()
	}

	if cfg.Manifest == "" {
		return nil, fmt.Errorf("--manifest is required")
	}
	if _, err := os.Stat(cfg.Manifest); err != nil {
		return nil, fmt.Errorf("the path to the manifest file was not found: %w", err)
	}
	return cfg, nil
}
