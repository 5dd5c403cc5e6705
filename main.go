// Copyright 2025 Dave Lage (rockerBOO)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/rockerboo/opencl-language-server/config"
	"github.com/rockerboo/opencl-language-server/device"
	"github.com/rockerboo/opencl-language-server/diagnostics"
	"github.com/rockerboo/opencl-language-server/directories"
	"github.com/rockerboo/opencl-language-server/langserver"
	"github.com/rockerboo/opencl-language-server/logger"
	"github.com/rockerboo/opencl-language-server/rpc"
	"github.com/rockerboo/opencl-language-server/security"
)

// tryLoadConfig attempts the command-line config path first, falling back to
// a couple of conventional file names before giving up.
func tryLoadConfig(primaryPath string, allowedDirectories []string) (*config.Config, error) {
	if cfg, err := config.Load(primaryPath, allowedDirectories); err == nil {
		return cfg, nil
	}

	fallbackPaths := []string{
		"opencl_lsp_config.json",
		"opencl_lsp_config.example.json",
	}

	for _, path := range fallbackPaths {
		if path == primaryPath {
			continue
		}

		if cfg, err := config.Load(path, allowedDirectories); err == nil {
			fmt.Fprintf(os.Stderr, "INFO: loaded configuration from fallback location: %s\n", path)
			return cfg, nil
		}
	}

	return nil, fmt.Errorf("no valid configuration found at %q or its fallbacks", primaryPath)
}

func main() {
	dirResolver := directories.NewDirectoryResolver("opencl-language-server", directories.DefaultUserProvider{}, directories.DefaultEnvProvider{}, true)

	configDir, err := dirResolver.GetConfigDirectory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to get config directory: %v\n", err)
		os.Exit(1)
	}

	logDir, err := dirResolver.GetLogDirectory()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to get log directory: %v\n", err)
		os.Exit(1)
	}

	defaultConfigPath := filepath.Join(configDir, "opencl_lsp_config.json")
	defaultLogPath := filepath.Join(logDir, "opencl-language-server.log")

	var confPath, logPath, logLevel string

	flag.StringVar(&confPath, "config", defaultConfigPath, "Path to configuration file")
	flag.StringVar(&confPath, "c", defaultConfigPath, "Path to configuration file (short)")
	flag.StringVar(&logPath, "log-path", "", "Path to log file (overrides config and default)")
	flag.StringVar(&logPath, "l", "", "Path to log file (short)")
	flag.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to get current working directory: %v\n", err)
		os.Exit(1)
	}

	allowedDirs := security.GetConfigAllowedDirectories(configDir, cwd)

	cfg, err := tryLoadConfig(confPath, allowedDirs)
	if err != nil {
		fmt.Fprintf(os.Stderr, "NOTICE: %v; using minimal default configuration\n", err)

		defaultCfg := config.Default()
		cfg = &defaultCfg
	}

	if logPath != "" {
		cfg.LogPath = logPath
	}

	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	if cfg.LogPath == "" {
		cfg.LogPath = defaultLogPath
	}

	if err := logger.InitLogger(logger.LoggerConfig{
		LogPath:     cfg.LogPath,
		LogLevel:    cfg.LogLevel,
		MaxLogFiles: cfg.MaxLogFiles,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Close()

	sessionID := uuid.NewString()
	logger.Info(fmt.Sprintf("starting opencl-language-server, session=%s", sessionID))

	driver := device.NewCLDriver()
	compiler := device.NewCLCompiler()
	engine := diagnostics.NewEngine(driver, compiler)

	if len(cfg.BuildOptions) > 0 {
		items := make([]any, len(cfg.BuildOptions))
		for i, opt := range cfg.BuildOptions {
			items[i] = opt
		}

		if err := engine.SetBuildOptions(items); err != nil {
			logger.Error(fmt.Sprintf("main: failed to apply configured build options: %v", err))
		}
	}

	if cfg.MaxNumberOfProblems > 0 {
		engine.SetMaxProblems(cfg.MaxNumberOfProblems)
	}

	endpoint := rpc.NewEndpoint()

	writer := bufio.NewWriter(os.Stdout)
	endpoint.RegisterOutput(func(p []byte) error {
		if _, err := writer.Write(p); err != nil {
			return err
		}

		return writer.Flush()
	})

	server := langserver.NewServer(endpoint, engine, driver)

	reader := bufio.NewReader(os.Stdin)
	stdinClosed := make(chan struct{})

	go func() {
		defer close(stdinClosed)

		for {
			b, err := reader.ReadByte()
			if err != nil {
				logger.Info(fmt.Sprintf("main: stdin closed: %v", err))
				return
			}

			endpoint.Consume(b)
		}
	}()

	var code int

	select {
	case code = <-server.Done():
	case <-stdinClosed:
		code = 1
	}

	logger.Info(fmt.Sprintf("opencl-language-server exiting with code %d", code))
	os.Exit(code)
}
