package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/roffe/gokwp/pkg/poller"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const flagCount = "count"

func init() {
	pollCmd.Flags().IntP(flagCount, "n", 0, "stop after n samples, 0 = until ctrl-c")
	rootCmd.AddCommand(pollCmd)
}

var pollCmd = &cobra.Command{
	Use:   "poll",
	Short: "poll the ECU with the configured request",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		count, _ := cmd.Flags().GetInt(flagCount)
		req, err := cfg.Poll.Frame()
		if err != nil {
			return err
		}
		conn, err := openConn(cmd.Context())
		if err != nil {
			return err
		}
		defer conn.Close()

		size := cfg.Poll.ResponseLength
		probed := false
		if size == 0 {
			resp, err := conn.SendRecv(req)
			if err != nil {
				return fmt.Errorf("probe response length: %w", err)
			}
			if len(resp) == 0 {
				return errors.New("probe response length: empty reply")
			}
			size = len(resp)
			probed = true
			logrus.Infof("response length %d taken from % X", size, resp)
		}

		p, err := poller.New(poller.Config{
			Request:        req,
			ResponseLength: size,
			Interval:       cfg.Poll.Interval(),
			FastPoll:       cfg.Poll.FastPoll,
			ClearFirst:     probed && cfg.Poll.FastPoll,
		}, conn, logrus.StandardLogger())
		if err != nil {
			return err
		}

		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()
		results := make(chan poller.Result, 16)
		errg, ctx := errgroup.WithContext(ctx)
		errg.Go(func() error {
			defer close(results)
			return p.Run(ctx, results)
		})
		errg.Go(func() error {
			var n int
			for res := range results {
				fmt.Println(formatResult(res))
				n++
				if count > 0 && n >= count {
					cancel()
				}
			}
			return nil
		})
		err = errg.Wait()
		logrus.Info(p.Stats())
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	},
}
