package cmd

import (
	"errors"
	"fmt"

	"github.com/roffe/gokwp/pkg/config"
	"github.com/roffe/gokwp/pkg/kwp2000"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const flagRaw = "raw"

func init() {
	sendCmd.Flags().Bool(flagRaw, false, "request already ends in its checksum")
	rootCmd.AddCommand(sendCmd)
}

var sendCmd = &cobra.Command{
	Use:   "send <hex>",
	Short: "send a request and print the reply",
	Long:  `send a request, the checksum is appended unless --raw is given. Example: kwptool send "81 10 F1 3E"`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		parse := config.ParseRequest
		if raw, _ := cmd.Flags().GetBool(flagRaw); raw {
			parse = config.ParseRawRequest
		}
		req, err := parse(args[0])
		if err != nil {
			return err
		}
		conn, err := openConn(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()

		fmt.Println("=>", hexString(req))
		resp, err := conn.SendRecv(req)
		if err != nil {
			return err
		}
		fmt.Println("<=", formatFrame(resp))

		payload, err := kwp2000.Decode(resp)
		var nr *kwp2000.NegativeResponse
		switch {
		case errors.As(err, &nr):
			fmt.Println(red("negative response: %v", nr))
		case err != nil:
			logrus.Warnf("could not decode reply: %v", err)
		default:
			fmt.Printf("%s %s\n", kwp2000.TranslateServiceCode(payload[0]-kwp2000.POSITIVE_RESPONSE), green("% X", payload))
		}
		return nil
	},
}
