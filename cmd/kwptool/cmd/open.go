package cmd

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/manifoldco/promptui"
	"github.com/roffe/gokwp"
	"github.com/roffe/gokwp/pkg/iso14230"
	"github.com/sirupsen/logrus"
)

// openConn creates the configured adapter and brings up the link, retrying
// a failed link init a few times
func openConn(ctx context.Context) (*iso14230.Conn, error) {
	log := logrus.WithField("adapter", cfg.Adapter.Name)
	acfg := &gokwp.AdapterConfig{
		Debug:            logrus.IsLevelEnabled(logrus.DebugLevel),
		Port:             cfg.Adapter.Library,
		AdditionalConfig: cfg.Adapter.Settings,
		OnMessage: func(msg string) {
			log.Info(msg)
		},
	}
	props := cfg.Connection.Properties()
	log.Debugf("connecting: %s", props)

	var conn *iso14230.Conn
	err := retry.Do(
		func() error {
			drv, err := gokwp.NewAdapter(cfg.Adapter.Name, acfg)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			c, err := iso14230.Open(props, drv,
				iso14230.WithLogger(logrus.StandardLogger()),
				iso14230.WithVersionInfo(cfg.Adapter.VersionInfo),
			)
			if err != nil {
				return err
			}
			conn = c
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, iso14230.ErrLinkInitFailed)
		}),
		retry.OnRetry(func(n uint, err error) {
			log.Warnf("open attempt %d failed: %v", n+1, err)
		}),
	)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

func pickAdapter() (string, error) {
	names := gokwp.ListAdapterNames()
	if len(names) == 0 {
		return "", errors.New("no adapters found")
	}
	prompt := promptui.Select{
		Label: "Select adapter",
		Items: names,
	}
	_, result, err := prompt.Run()
	if err != nil {
		return "", err
	}
	return result, nil
}
