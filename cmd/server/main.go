package main

import (
	"fmt"
	"os"

	"github.com/lk2023060901/file-storage-backend/internal/conf"
	"github.com/lk2023060901/file-storage-backend/internal/pkg/logger"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configFile string

	root := &cobra.Command{
		Use:           "file-storage",
		Short:         "Tagged file storage server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(configFile)
		},
	}
	root.PersistentFlags().StringVarP(&configFile, "config", "c", "configs/config.yaml", "config file path")

	root.AddCommand(newServeCmd(&configFile), newMigrateCmd(&configFile))
	return root
}

func newServeCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(*configFile)
		},
	}
}

// setup 加载配置并初始化全局 logger
func setup(configFile string) (*conf.Config, *logger.Logger, error) {
	config, err := conf.LoadConfig(configFile)
	if err != nil {
		return nil, nil, err
	}

	log, err := logger.InitGlobal(config.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return config, log, nil
}
