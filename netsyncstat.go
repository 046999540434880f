package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"

	"netsyncstat/pkg/clock"
)

func main() {
	if err := mainErr(); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Print(err)
		var uerr usageError
		if errors.As(err, &uerr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func mainErr() error {
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006/01/02 15:04:05.000000",
	})

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warnf("loading .env: %v", err)
	}

	conf, err := parseConfig(os.Args[1:], os.Getenv, os.Stderr)
	if err != nil {
		return err
	}
	if conf.Verbose {
		log.SetLevel(log.DebugLevel)
	}

	rt := Runtime{
		Clock:  clock.Real{},
		Stdout: os.Stdout,
		Log:    log.WithField("run", uuid.NewString()),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if conf.Transmitter() {
		rt.Log.Infof("transmitter: host=%s port=%d count=%d interval=%v", conf.Host, conf.Port, conf.Count, conf.Interval)
		return Transmit(ctx, conf, rt)
	}

	rt.Log.Infof("listener: port=%d count=%d output=%q", conf.Port, conf.Count, conf.Output)
	return Listen(ctx, conf, rt)
}
