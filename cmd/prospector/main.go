package main

import (
	"os"

	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{
		Use:   "prospector",
		Short: "Iterative person research: plan queries, search, reflect, repeat",
	}

	root.AddCommand(researchCMD(), serveCMD(), tokenCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
