package main

import (
	"context"
	"os"
	"os/signal"
	"time"

	"github.com/roffe/gokwp/cmd/kwptool/cmd"
	"github.com/sirupsen/logrus"
	// Init adapters
	_ "github.com/roffe/gokwp/adapter/j2534"
	_ "github.com/roffe/gokwp/adapter/virtual"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel() // Setup interupt handler for ctrl-c
	quitChan := make(chan os.Signal, 1)
	signal.Notify(quitChan, os.Interrupt)
	go func() {
		s := <-quitChan
		logrus.Infof("got %v, exiting", s)
		cancel()
		// Failsafe if there is deadlocks
		<-time.After(15 * time.Second)
		logrus.Fatal("took to long to shutdown, forcefully exiting")
	}()
	if err := cmd.Execute(ctx); err != nil {
		os.Exit(1)
	}
}
