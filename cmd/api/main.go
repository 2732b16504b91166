package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title Med Reminder API
// @version 1.0
// @description Medicaciones, historial de tomas y detección de tomas perdidas.
// @BasePath /

var rootCmd = &cobra.Command{
	Use:           "medremind",
	Short:         "Medication reminder backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
