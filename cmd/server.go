package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/takutakahashi/seo-agent-proxy/internal/app"
	"github.com/takutakahashi/seo-agent-proxy/pkg/config"
)

var (
	cfgFile string
	vcfg    = config.NewViper()
)

var ServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the SEO agent submission gateway",
	Long: `Start the HTTP gateway that relays agent configuration and review requests
to the SEO agent orchestrator.

The orchestrator address is read from ORCH_URL (default http://127.0.0.1:8001).`,
	Run: runServer,
}

func init() {
	ServerCmd.Flags().StringP("port", "p", config.DefaultPort, "Port to listen on")
	ServerCmd.Flags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (JSON, YAML or TOML)")
	ServerCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")
	ServerCmd.Flags().String("orchestrator-url", "", "Orchestrator base URL (overrides ORCH_URL)")
	ServerCmd.Flags().Duration("orchestrator-timeout", config.DefaultOrchestratorTimeout, "Timeout for each orchestrator call, 0 disables it")
	ServerCmd.Flags().String("max-body-size", config.DefaultMaxBodySize, "Largest accepted request body, e.g. 10M (review CSV exports count)")

	// Bind flags to viper
	bindings := map[string]string{
		"port":                 "port",
		"verbose":              "verbose",
		"orchestrator.url":     "orchestrator-url",
		"orchestrator.timeout": "orchestrator-timeout",
		"max_body_size":        "max-body-size",
	}
	for key, flag := range bindings {
		if err := vcfg.BindPFlag(key, ServerCmd.Flags().Lookup(flag)); err != nil {
			log.Printf("Failed to bind %s flag: %v", flag, err)
		}
	}
}

func runServer(cmd *cobra.Command, args []string) {
	cfg, err := config.LoadConfig(vcfg, cfgFile)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Verbose {
		log.SetFlags(log.LstdFlags | log.Lshortfile)
	}

	server := app.NewServer(cfg, nil)

	go func() {
		log.Printf("Starting seo-agent-proxy on port %s", cfg.Port)
		if err := server.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("Shutdown signal received, shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}
	log.Printf("Server shutdown complete")
}
