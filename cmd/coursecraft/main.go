// Package main provides the entry point for the CourseCraft content
// generation server and CLI.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "coursecraft",
	Short: "CourseCraft training content generation",
	Long:  "CourseCraft generates client-tailored corporate training content through a human-gated workflow: brief analysis, framework and approach selection, content planning, and quality-controlled batch generation.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
