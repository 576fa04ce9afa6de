package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/save2win/save2win-front/internal"
	"github.com/save2win/save2win-front/internal/config"
	"github.com/save2win/save2win-front/internal/log"
)

var BuildVersion = "dev"

func generateDefaultConfig(path string) error {
	defaultConfig := map[string]any{
		"version": config.VersionPrefix,
		"server": map[string]any{
			"addr":           ":8080",
			"baseURL":        "https://save2win.example.com",
			"allowedOrigins": []string{"https://save2win.example.com"},
		},
		"identity": map[string]any{
			"baseURL":      "https://bank.example.com/login",
			"clientId":     map[string]string{"$env": "SAVE2WIN_CLIENT_ID"},
			"clientSecret": map[string]string{"$env": "SAVE2WIN_CLIENT_SECRET"},
			"redirectUri":  "https://save2win.example.com/callback",
			"appName":      "Save2Win",
		},
		"session": map[string]any{
			"cookieName": config.DefaultCookieName,
			"maxAge":     "8h",
			"secure":     true,
		},
		"signin": map[string]any{
			"stateValidation": "strict",
			"nonceTtl":        "10m",
			"storage":         "memory",
			"signingKey":      map[string]string{"$env": "SAVE2WIN_SIGNING_KEY"},
		},
		"engine": map[string]any{
			"baseURL":      "http://save2win-engine:8000",
			"timeout":      "12s",
			"reshape":      true,
			"allowedPaths": []string{"/v1/context/**"},
		},
		"mcp": map[string]any{
			"enabled": false,
		},
	}

	data, err := json.MarshalIndent(defaultConfig, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

func validateConfig(path string) error {
	result, err := config.ValidateFile(path)
	if err != nil {
		return fmt.Errorf("error during validation: %w", err)
	}

	fmt.Printf("Validating: %s\n", path)

	printIssues := func(title string, issues []config.ValidationError) {
		if len(issues) == 0 {
			return
		}
		fmt.Printf("\n%s (%d):\n", title, len(issues))
		for _, issue := range issues {
			if issue.Path != "" {
				fmt.Printf("  - %s: %s\n", issue.Path, issue.Message)
			} else {
				fmt.Printf("  - %s\n", issue.Message)
			}
		}
	}
	printIssues("Errors", result.Errors)
	printIssues("Warnings", result.Warnings)

	fmt.Println()
	switch {
	case len(result.Errors) > 0:
		fmt.Println("Result: FAIL")
	case len(result.Warnings) > 0:
		fmt.Println("Result: FAIL (warnings present)")
	default:
		fmt.Println("Result: PASS")
	}

	if len(result.Errors) > 0 || len(result.Warnings) > 0 {
		return fmt.Errorf("validation failed: %d error(s), %d warning(s)", len(result.Errors), len(result.Warnings))
	}
	return nil
}

// loadDotEnv loads .env if present; variables already set win
func loadDotEnv() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.LogWarn("Failed to load .env: %v", err)
	}
}

func main() {
	conf := flag.String("config", "", "path to config file (environment variables are used when omitted)")
	version := flag.Bool("version", false, "print version and exit")
	help := flag.Bool("help", false, "print help and exit")
	configInit := flag.String("config-init", "", "generate default config file at specified path")
	validate := flag.Bool("validate", false, "validate config file and exit")
	flag.Parse()
	if *help {
		flag.Usage()
		return
	}
	if *version {
		fmt.Println(BuildVersion)
		return
	}
	if *configInit != "" {
		if err := generateDefaultConfig(*configInit); err != nil {
			log.LogError("Failed to generate config: %v", err)
			os.Exit(1)
		}
		fmt.Printf("Generated default config at: %s\n", *configInit)
		return
	}

	loadDotEnv()

	if *validate {
		if *conf == "" {
			fmt.Fprintf(os.Stderr, "Error: -config flag is required for validation\n")
			os.Exit(1)
		}
		if err := validateConfig(*conf); err != nil {
			os.Exit(1)
		}
		return
	}

	var (
		cfg config.Config
		err error
	)
	if *conf != "" {
		cfg, err = config.Load(*conf)
	} else {
		cfg, err = config.LoadFromEnv()
	}
	if err != nil {
		log.LogError("Failed to load config: %v", err)
		os.Exit(1)
	}

	log.LogInfoWithFields("main", "Starting save2win-front", map[string]any{
		"version": BuildVersion,
		"config":  *conf,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := internal.NewSave2WinFront(ctx, cfg)
	if err != nil {
		log.LogError("Failed to create relay: %v", err)
		os.Exit(1)
	}

	if err := app.Run(ctx); err != nil {
		log.LogError("Relay stopped: %v", err)
		os.Exit(1)
	}
}
