package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/roffe/gokwp/pkg/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "kwptool",
	Short:        "KWP2000 over K-line",
	Long:         `Talk ISO14230 to an ECU through a J2534 pass-thru adapter`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		setupLogging(cmd)
		var err error
		cfg, err = loadConfig(cmd)
		return err
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

const (
	flagConfig      = "config"
	flagAdapter     = "adapter"
	flagLibrary     = "library"
	flagDebug       = "debug"
	flagTrace       = "trace"
	flagBaudrate    = "baud"
	flagTimeout     = "timeout"
	flagVersionInfo = "version-info"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP(flagConfig, "c", config.DefaultFile, "config file")
	pf.StringP(flagAdapter, "a", "", "what adapter to use, empty = pick from a list")
	pf.String(flagLibrary, "", "override J2534 library path")
	pf.BoolP(flagDebug, "d", false, "debug logging")
	pf.Bool(flagTrace, false, "trace logging")
	pf.Uint32P(flagBaudrate, "b", 0, "K-line baudrate, 0 = from config")
	pf.DurationP(flagTimeout, "t", 0, "connect timeout, 0 = from config")
	pf.Bool(flagVersionInfo, false, "log J2534 firmware/dll/api versions")
}

func setupLogging(cmd *cobra.Command) {
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05.000",
	})
	logrus.SetLevel(logrus.InfoLevel)
	if debug, _ := cmd.Flags().GetBool(flagDebug); debug {
		logrus.SetLevel(logrus.DebugLevel)
	}
	if trace, _ := cmd.Flags().GetBool(flagTrace); trace {
		logrus.SetLevel(logrus.TraceLevel)
	}
}

// loadConfig reads the config file and applies command line overrides
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	f := cmd.Flags()
	path, _ := f.GetString(flagConfig)
	c, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if f.Changed(flagAdapter) {
		c.Adapter.Name, _ = f.GetString(flagAdapter)
		if c.Adapter.Name == "" {
			if c.Adapter.Name, err = pickAdapter(); err != nil {
				return nil, err
			}
		}
	}
	if f.Changed(flagLibrary) {
		c.Adapter.Library, _ = f.GetString(flagLibrary)
	}
	if f.Changed(flagVersionInfo) {
		c.Adapter.VersionInfo, _ = f.GetBool(flagVersionInfo)
	}
	if baud, _ := f.GetUint32(flagBaudrate); baud > 0 {
		c.Connection.BaudRate = baud
	}
	if timeout, _ := f.GetDuration(flagTimeout); timeout > 0 {
		c.Connection.ConnectTimeoutMs = int(timeout / time.Millisecond)
	}
	if err := config.Validate(c); err != nil && cmd.Name() != configInitCmd.Name() {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}
