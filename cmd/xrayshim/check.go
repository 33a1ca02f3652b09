package main

import (
	"fmt"

	"xrayshim/internal/config"
	"xrayshim/internal/logger"
	"xrayshim/internal/xray"
	"xrayshim/internal/xray/parser"

	"github.com/spf13/cobra"
)

var checkPolicy policyFlags

var checkCmd = &cobra.Command{
	Use:   "check <uri>",
	Short: "Compile a share-link and verify the engine accepts the result",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			logger.Log.Fatalf("Error loading config: %v", err)
		}

		b, err := checkPolicy.builder(cmd, cfg)
		if err != nil {
			logger.Log.Fatalf("Invalid policy: %v", err)
		}

		doc, err := xray.Compile(parser.CleanLink(args[0]), b.Snapshot())
		if err != nil {
			logger.Log.Fatalf("Compile failed: %v", err)
		}

		raw, err := doc.Bytes()
		if err != nil {
			logger.Log.Fatalf("Failed to serialize configuration: %v", err)
		}

		if _, err := xray.LoadConfig(raw); err != nil {
			logger.Log.Fatalf("Engine rejected configuration: %v", err)
		}
		fmt.Println("OK")
	},
}

func init() {
	checkPolicy.register(checkCmd)
	rootCmd.AddCommand(checkCmd)
}
