// Command receiver runs the audio streaming receiver pipeline standalone,
// listening for RTP source packets and FEC repair packets over QUIC
// datagrams and playing
// the reconstructed stream out a PortAudio device.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"bken/receiver/internal/config"
	"bken/receiver/internal/rlog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		err = runCmd(args)
	case "status":
		err = statusCmd(args)
	case "version":
		fmt.Println(version)
		return
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "receiver:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: receiver <command> [flags]

commands:
  run       start the receiver pipeline
  status    print the remembered CLI preferences (last config path, log level)
  version   print the build version`)
}

const version = "0.1.0-dev"

func runCmd(args []string) error {
	fs := pflag.NewFlagSet("run", pflag.ExitOnError)
	configPath := fs.StringP("config", "c", "", "path to a YAML config file")
	logLevel := fs.String("log-level", "", "override the configured log level")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	applyLogLevel(cfg.LogLevel)

	prefs := config.Prefs{LastConfigPath: *configPath, LogLevel: cfg.LogLevel}
	if err := prefs.Save(); err != nil {
		rlog.Area("main").Warnf("saving CLI preferences: %v", err)
	}

	rlog.Area("main").Infof("starting receiver: source=%s repair=%s rate=%d channels=%d",
		cfg.ListenSource, cfg.ListenRepair, cfg.SampleRate, cfg.ChannelCount)

	return Run(cfg)
}

func statusCmd(args []string) error {
	fs := pflag.NewFlagSet("status", pflag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	prefs, err := config.LoadPrefs()
	if err != nil {
		return err
	}
	fmt.Printf("last config: %s\nlog level: %s\n", prefs.LastConfigPath, prefs.LogLevel)
	return nil
}
