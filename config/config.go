package config

import (
	"os"
	"strconv"
)

type Config struct {
	Port        int
	BaseURL     string // Public base URL of this gateway (e.g. https://api.maxwinmyanmar.pro)
	DatabaseURL string
	SitesFile   string // Optional sites.yaml overriding the built-in site registry
	RoomsFile   string // Optional rooms.yaml overriding the built-in room table
	DefaultSite string // Prefix used when a frontend request carries no site_prefix
	ProviderID  int    // Provider id the launch-game endpoint accepts (Buffalo)
	LogLevel    string
}

func Load() *Config {
	port := 8082
	// Prefer PORT (Render, Fly.io, Railway, etc.) then GATEWAY_PORT
	if p := os.Getenv("PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			port = v
		}
	} else if p := os.Getenv("GATEWAY_PORT"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			port = v
		}
	}
	baseURL := os.Getenv("GATEWAY_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8082"
	}
	defaultSite := os.Getenv("BUFFALO_DEFAULT_SITE")
	if defaultSite == "" {
		defaultSite = "mxm"
	}
	providerID := 23
	if p := os.Getenv("BUFFALO_PROVIDER_ID"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			providerID = v
		}
	}
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	return &Config{
		Port:        port,
		BaseURL:     baseURL,
		DatabaseURL: os.Getenv("DATABASE_URL"),
		SitesFile:   os.Getenv("BUFFALO_SITES_FILE"),
		RoomsFile:   os.Getenv("BUFFALO_ROOMS_FILE"),
		DefaultSite: defaultSite,
		ProviderID:  providerID,
		LogLevel:    logLevel,
	}
}
