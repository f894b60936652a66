package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli"
)

const (
	// AppName is the name of the application
	AppName = "paypalctl"
	// AppVersion is the version of the application
	AppVersion = "0.1"
	// AppDescription describes what this application does
	AppDescription = "PayPal vault carrier account c&c and utilities"
)

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = AppName
	app.Version = AppVersion
	app.Usage = AppDescription

	app.Commands = []cli.Command{
		configCommand,
		carrierAccountCommand,
	}

	app.Flags = []cli.Flag{
		cli.StringFlag{
			Name:   "config, c",
			Usage:  "config file name (.json, .yml or .yaml)",
			EnvVar: "PAYPAL_CONFIG",
		},
		cli.StringFlag{
			Name:  "env-file",
			Usage: "file with PAYPAL_* environment variables to load",
		},
	}
	app.Before = loadEnvFile
	return app
}

// variables already set in the environment take precedence
func loadEnvFile(c *cli.Context) error {
	name := c.GlobalString("env-file")
	if name == "" {
		return nil
	}
	if err := godotenv.Load(name); err != nil {
		return fmt.Errorf("error loading env file %s: %v", name, err)
	}
	return nil
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
