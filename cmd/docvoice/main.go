package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docvoice",
	Short: "Convert documents to narrated audio",
	Long: `docvoice reconstructs readable prose from PDFs, LaTeX projects, and
other document formats, and narrates it through an OpenAI-compatible
text-to-speech endpoint.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
