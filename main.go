package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/takutakahashi/seo-agent-proxy/cmd"
)

var rootCmd = &cobra.Command{
	Use:   "seo-agent-proxy",
	Short: "SEO agent configuration gateway",
	Long:  "Configure an SEO agent and relay configuration and review requests to its orchestrator",
}

func init() {
	rootCmd.AddCommand(cmd.ServerCmd)
	rootCmd.AddCommand(cmd.ClientCmd)
	rootCmd.AddCommand(cmd.HelpersCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Println(err)
		os.Exit(1)
	}
}
