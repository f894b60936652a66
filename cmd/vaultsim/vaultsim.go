package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/lbijlsma/paypal-sdk-go/pkg/config"
	"github.com/lbijlsma/paypal-sdk-go/pkg/env"
	"github.com/lbijlsma/paypal-sdk-go/pkg/server"
	"github.com/lbijlsma/paypal-sdk-go/pkg/vaultsim"
	"gopkg.in/inconshreveable/log15.v2"
)

const (
	// AppName is the name of the application
	AppName = "vaultsim"
	// AppVersion is the version of the application
	AppVersion = "0.1"
)

// command line flags
var (
	addr     string
	clientID string
	secret   string
	validity time.Duration
	logLevel string
)

var (
	log log15.Logger
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		env.Log.Crit("error reading environment", log15.Ctx{"err": err})
		os.Exit(1)
	}

	flag.StringVar(&addr, "addr", "127.0.0.1:8089", "address to listen on")
	flag.StringVar(&clientID, "id", cfg.Credentials.ClientID, "accepted client id")
	flag.StringVar(&secret, "secret", cfg.Credentials.ClientSecret, "accepted client secret")
	flag.DurationVar(&validity, "validity", 0, "validity of created carrier accounts")
	flag.StringVar(&logLevel, "log", cfg.Log.Level, "log level")
	flag.Parse()

	if err := env.SetLevel(logLevel); err != nil {
		env.Log.Crit("invalid log level", log15.Ctx{"err": err})
		os.Exit(1)
	}
	log = env.Log.New(log15.Ctx{
		"pkg":        "github.com/lbijlsma/paypal-sdk-go/cmd/vaultsim",
		"appVersion": AppVersion,
	})

	if clientID == "" || secret == "" {
		log.Crit("client id and secret are required")
		os.Exit(1)
	}

	sim := vaultsim.NewSimulator(clientID, secret)
	if validity > 0 {
		sim.SetValidity(validity)
	}

	srv := server.NewServer(log)
	if err := srv.RegisterService(server.DefaultServiceConfig(addr), sim); err != nil {
		log.Crit("error registering simulator", log15.Ctx{"err": err})
		os.Exit(1)
	}
	log.Info("starting...", log15.Ctx{"clientId": clientID})
	if err := srv.Serve(context.Background()); err != nil {
		log.Crit("error serving", log15.Ctx{"err": err})
		os.Exit(1)
	}
}
