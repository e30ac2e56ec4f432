package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/roffe/gokwp/pkg/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const flagForce = "force"

func init() {
	configInitCmd.Flags().BoolP(flagForce, "f", false, "overwrite an existing file")
	configCmd.AddCommand(configInitCmd, configShowCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "config file related commands",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "write a config file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString(flagConfig)
		force, _ := cmd.Flags().GetBool(flagForce)
		if _, err := os.Stat(path); err == nil && !force {
			return fmt.Errorf("%s already exists, use --%s to overwrite", path, flagForce)
		} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		if err := config.Default().Save(path); err != nil {
			return err
		}
		fmt.Println("wrote", path)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "print the effective config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		b, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		fmt.Print(string(b))
		return nil
	},
}
