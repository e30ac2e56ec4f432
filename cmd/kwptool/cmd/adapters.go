package cmd

import (
	"fmt"

	"github.com/roffe/gokwp"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(adaptersCmd)
}

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "list available adapters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		adapters := gokwp.ListAdapters()
		if len(adapters) == 0 {
			fmt.Println("no adapters found")
			return nil
		}
		for _, a := range adapters {
			name := a.Name
			if name == cfg.Adapter.Name {
				name = green("%s", name)
			}
			fmt.Printf("%s | %s, %s\n", name, a.Description, a.Capabilities.String())
		}
		return nil
	},
}
