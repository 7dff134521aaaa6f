package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "turnguard",
	Short: "cosphere 平台的 Turnstile 验证与降级管理服务",
	Run: func(cmd *cobra.Command, args []string) {
		runServer()
	},
}

var listenAddr string

func init() {
	rootCmd.PersistentFlags().StringVarP(&listenAddr, "listen", "l", "0.0.0.0:25775", "服务监听地址")
	rootCmd.AddCommand(serverCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
