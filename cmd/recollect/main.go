package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/recollect/internal/version"
)

func main() {
	root := &cobra.Command{
		Use:          "recollect",
		Short:        "Find a half-remembered video from a free-text description",
		Version:      version.String(),
		SilenceUsage: true,
	}

	root.AddCommand(serveCMD(), queryCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
