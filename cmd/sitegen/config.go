package main

import (
	"errors"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/eringen/sitegen"
)

// loadEnv loads file into the process environment. A missing file is not
// an error; variables already set win over the file.
func loadEnv(file string) error {
	if file == "" {
		return nil
	}
	if err := godotenv.Load(file); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.WithField("file", file).Debug("no env file")
			return nil
		}
		return err
	}
	log.WithField("file", file).Debug("env file loaded")
	return nil
}

// EnvOrFlag returns the flag value when it was set on the command line,
// otherwise the environment variable, otherwise the flag default.
func EnvOrFlag(cmd *cobra.Command, flag, value, env string) string {
	if cmd.Flags().Changed(flag) {
		return value
	}
	return sitegen.EnvOr(env, value)
}

// loadConfig builds the site configuration from the environment and flags.
func loadConfig(cmd *cobra.Command) sitegen.SiteConfig {
	cfg := sitegen.SiteConfig{
		Name:               sitegen.EnvOr("SITE_NAME", "Blog"),
		URL:                sitegen.EnvOr("SITE_URL", "http://localhost:3000"),
		Description:        sitegen.EnvOr("SITE_DESCRIPTION", ""),
		AuthorName:         sitegen.EnvOr("SITE_AUTHOR", ""),
		AuthorEmail:        sitegen.EnvOr("SITE_AUTHOR_EMAIL", ""),
		ContentDir:         EnvOrFlag(cmd, "content", flagContent, "CONTENT_DIR"),
		OutputDir:          EnvOrFlag(cmd, "output", flagOutput, "OUTPUT_DIR"),
		PublicDir:          sitegen.EnvOr("PUBLIC_DIR", "public"),
		PerPage:            envInt("PER_PAGE", sitegen.DefaultPerPage),
		LegacyPageOffset:   envBool("LEGACY_PAGE_OFFSET"),
		StaticRoutes:       sitegen.FilterEmpty(strings.Split(sitegen.EnvOr("STATIC_ROUTES", ""), ",")),
		MaxImageWidth:      envInt("MAX_IMAGE_WIDTH", 800),
		Addr:               sitegen.EnvOr("ADDR", ":3000"),
		IndexPath:          sitegen.EnvOr("INDEX_PATH", "data/index.db"),
		CacheTTL:           envDuration("CACHE_TTL", time.Minute),
		SubscribeRate:      envInt("SUBSCRIBE_RATE", 5),
		NewsletterEndpoint: sitegen.EnvOr("NEWSLETTER_ENDPOINT", ""),
		NewsletterToken:    sitegen.EnvOr("NEWSLETTER_TOKEN", ""),
	}
	for i, r := range cfg.StaticRoutes {
		cfg.StaticRoutes[i] = strings.TrimSpace(r)
	}
	return cfg.WithDefaults()
}

func envInt(key string, fallback int) int {
	v := sitegen.EnvOr(key, "")
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.WithField("key", key).WithField("value", v).Warn("ignoring non-numeric value")
		return fallback
	}
	return n
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(sitegen.EnvOr(key, "false"))
	return b
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := sitegen.EnvOr(key, "")
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.WithField("key", key).WithField("value", v).Warn("ignoring invalid duration")
		return fallback
	}
	return d
}
