// Command extract-cli runs the transcript extraction pipeline offline and
// prints the result as JSON.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "extract-cli",
	Short: "Extract student profiles from interview transcripts",
	Long:  "extract-cli runs the extraction, validation and merge pipeline on a transcript file without touching any database.",
}

func main() {
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
