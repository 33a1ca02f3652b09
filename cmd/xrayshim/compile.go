package main

import (
	"fmt"
	"os"

	"xrayshim/internal/config"
	"xrayshim/internal/logger"
	"xrayshim/internal/xray"
	"xrayshim/internal/xray/parser"

	"github.com/spf13/cobra"
)

var (
	compilePolicy policyFlags
	compileOut    string
)

var compileCmd = &cobra.Command{
	Use:   "compile <uri>",
	Short: "Compile a share-link into an xray configuration",
	Long:  `Decodes a vmess:// or vless:// share-link and prints the engine configuration built from it and the current policy.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			logger.Log.Fatalf("Error loading config: %v", err)
		}

		b, err := compilePolicy.builder(cmd, cfg)
		if err != nil {
			logger.Log.Fatalf("Invalid policy: %v", err)
		}

		doc, err := xray.Compile(parser.CleanLink(args[0]), b.Snapshot())
		if err != nil {
			logger.Log.Fatalf("Compile failed: %v", err)
		}

		out, err := doc.Bytes()
		if err != nil {
			logger.Log.Fatalf("Failed to serialize configuration: %v", err)
		}

		if compileOut == "" {
			fmt.Println(string(out))
			return
		}
		if err := os.WriteFile(compileOut, append(out, '\n'), 0644); err != nil {
			logger.Log.Fatalf("Failed to write %s: %v", compileOut, err)
		}
		logger.Log.Infof("Wrote %s", compileOut)
	},
}

func init() {
	compilePolicy.register(compileCmd)
	compileCmd.Flags().StringVarP(&compileOut, "out", "o", "", "Write the configuration to a file instead of stdout")
	rootCmd.AddCommand(compileCmd)
}
