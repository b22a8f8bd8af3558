/*
   Copyright 2025 The DIRPX Authors.

   Licensed under the Apache License, Version 2.0 (the "License");
   you may not use this file except in compliance with the License.
   You may obtain a copy of the License at

       http://www.apache.org/licenses/LICENSE-2.0

   Unless required by applicable law or agreed to in writing, software
   distributed under the License is distributed on an "AS IS" BASIS,
   WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
   See the License for the specific language governing permissions and
   limitations under the License.
*/

package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"dirpx.dev/rmx/config"
	"dirpx.dev/rmx/naming"
	"dirpx.dev/rmx/server"
	"dirpx.dev/rmx/transport"
)

// version is set at build time.
var version = "dev"

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "rmxd",
		Short:         "Management exposure daemon",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCommand())
	root.AddCommand(newNamesCommand())
	return root
}

func newServeCommand() *cobra.Command {
	var (
		configPath string
		port       int
		debug      bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the management server and publish runtime beans",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("port") || cfg.RegistryPort == 0 {
				cfg.RegistryPort = port
			}

			level := zap.NewAtomicLevelAt(zap.InfoLevel)
			zcfg := zap.NewProductionConfig()
			if debug {
				zcfg = zap.NewDevelopmentConfig()
				level.SetLevel(zap.DebugLevel)
			}
			zcfg.Level = level
			log, err := zcfg.Build()
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			defer func() { _ = log.Sync() }()

			srv := server.New(cfg, server.WithLogger(log))
			if _, err := srv.Register(newRuntimeStats()); err != nil {
				return err
			}
			info := newDaemonInfo(version, configPath, level, srv)
			if _, err := srv.Register(info); err != nil {
				return err
			}
			if err := srv.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			log.Info("shutting down")
			srv.Stop()
			return nil
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "config file (yaml, json or toml)")
	cmd.Flags().IntVarP(&port, "port", "p", defaultPort, "registry port (overrides config)")
	cmd.Flags().BoolVar(&debug, "debug", false, "development logging at debug level")
	return cmd
}

func newNamesCommand() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "names",
		Short: "List the names a running daemon publishes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			names, err := transport.FetchNames(ctx, addr)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, color.YellowString("no beans published"))
				return nil
			}
			for _, s := range names {
				fmt.Fprintln(out, colorName(s))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&addr, "addr", "a", net.JoinHostPort(config.DefaultHost, strconv.Itoa(defaultPort)), "registry address")
	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Second, "request timeout")
	return cmd
}

// defaultPort is the registry port used when neither flag nor config sets one.
const defaultPort = 9875

// colorName renders a canonical name with the domain and the bean name
// highlighted. Unparseable names are printed as-is.
func colorName(s string) string {
	n, err := naming.Parse(s)
	if err != nil {
		return s
	}
	props := n.Folders()
	parts := make([]string, 0, len(props)+1)
	for _, p := range props {
		parts = append(parts, color.HiBlackString(p.Key+"=")+p.Value)
	}
	parts = append(parts, color.HiBlackString(naming.NameKey+"=")+color.New(color.Bold).Sprint(n.Bean()))
	return color.CyanString(n.Domain()) + ":" + strings.Join(parts, ",")
}
