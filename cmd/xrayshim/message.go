package main

import (
	"fmt"
	"io"
	"os"

	"xrayshim/internal/config"
	"xrayshim/internal/logger"
	"xrayshim/internal/policy"
	"xrayshim/internal/tunnel"
	"xrayshim/internal/xray"

	"github.com/spf13/cobra"
)

var messageShow bool

var messageCmd = &cobra.Command{
	Use:   "message <file|->",
	Short: "Feed a host-app message to the tunnel provider and print the ack",
	Long:  `Reads a JSON app message (e.g. {"type":0,"configuration":"vless://..."}) from a file or stdin. With --show the resulting configuration is printed after the ack.`,
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadOrDefault(cfgFile)
		if err != nil {
			logger.Log.Fatalf("Error loading config: %v", err)
		}

		var data []byte
		if args[0] == "-" {
			data, err = io.ReadAll(os.Stdin)
		} else {
			data, err = os.ReadFile(args[0])
		}
		if err != nil {
			logger.Log.Fatalf("Failed to read message: %v", err)
		}

		b := policy.NewBuilder()
		if err := cfg.ApplyPolicy(b); err != nil {
			logger.Log.Fatalf("Invalid policy: %v", err)
		}

		provider := tunnel.NewProvider(b, xray.NewEngine())
		ack, err := provider.HandleAppMessage(data)
		if err != nil {
			logger.Log.Fatalf("Failed to build ack: %v", err)
		}
		fmt.Println(string(ack))

		if messageShow {
			doc := provider.Document()
			if doc == nil {
				logger.Log.Warn("Message did not set up a configuration")
				return
			}
			out, err := doc.Bytes()
			if err != nil {
				logger.Log.Fatalf("Failed to serialize configuration: %v", err)
			}
			fmt.Println(string(out))
		}
	},
}

func init() {
	messageCmd.Flags().BoolVar(&messageShow, "show", false, "Print the configuration set up by the message")
	rootCmd.AddCommand(messageCmd)
}
