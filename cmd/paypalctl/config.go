package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/lbijlsma/paypal-sdk-go/pkg/config"
	"github.com/urfave/cli"
)

const cfgCommandDescription = `This command allows you to load, modify and test configuration
files. PAYPAL_* environment variables override the values of the file.`

var configCommand = cli.Command{
	Name:        "config",
	Aliases:     []string{"cfg"},
	Usage:       "Configuration related tools.",
	Description: cfgCommandDescription,
	Subcommands: []cli.Command{
		testConfigCommand,
		writeConfigCommand,
	},
}

var testConfigCommand = cli.Command{
	Name:    "test",
	Aliases: []string{"t"},
	Usage:   "Test configuration.",
	Action:  testConfigAction,
}

func configFileName(c *cli.Context) string {
	return c.GlobalString("config")
}

// readConfig reads the config file given by the global flag and applies the
// environment
func readConfig(c *cli.Context) (config.Config, error) {
	cfg := config.DefaultConfig()
	if name := configFileName(c); name != "" {
		var err error
		cfg, err = config.ReadConfigFile(name)
		if err != nil {
			return cfg, fmt.Errorf("error reading config file %s: %v", name, err)
		}
	}
	if err := config.ApplyEnv(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func testConfigAction(c *cli.Context) error {
	out := c.App.Writer
	if configFileName(c) == "" {
		fmt.Fprintln(out, "no config file flag provided. will use default config...")
	}
	cfg, err := readConfig(c)
	if err != nil {
		return err
	}

	errs := cfg.Validate()
	warnings := 0
	for _, err := range errs {
		fmt.Fprintf(out, "error: %v\n", err)
	}
	if strings.EqualFold(cfg.Mode, config.ModeLive) && cfg.Endpoint != "" {
		warnings++
		fmt.Fprintf(out, "warning: live mode with endpoint override %s\n", cfg.Endpoint)
	}
	if !cfg.Cache.Enabled {
		warnings++
		fmt.Fprintln(out, "warning: token cache disabled. every call requests a new access token.")
	}
	fmt.Fprintf(out, "endpoint: calls will be sent to %s\n", cfg.BaseURL())

	fmt.Fprintf(out, "\n\nconfig testing complete.\n%d errors and %d warnings.\n", len(errs), warnings)
	if len(errs) > 0 {
		return fmt.Errorf("config has %d errors", len(errs))
	}
	return nil
}

var writeConfigCommand = cli.Command{
	Name:    "write",
	Aliases: []string{"w"},
	Usage:   "Will write the config in buffer to the given output file.",
	Flags: []cli.Flag{
		cli.StringFlag{
			Name:  "output, o",
			Usage: "Output file to write to.",
		},
	},
	Action: writeConfigAction,
}

func writeConfigAction(c *cli.Context) error {
	cfgFileName := c.String("output")
	if cfgFileName == "" {
		fmt.Fprint(c.App.Writer, "no output file name provided\n\n")
		cli.ShowCommandHelp(c, "write")
		return fmt.Errorf("no output file name provided")
	}

	cfg, err := readConfig(c)
	if err != nil {
		return err
	}
	cfgFile, err := os.OpenFile(cfgFileName, os.O_WRONLY|os.O_TRUNC|os.O_CREATE, 0600)
	if err != nil {
		return fmt.Errorf("error opening config file %s for writing: %v", cfgFileName, err)
	}
	defer cfgFile.Close()
	err = config.WriteConfig(cfgFile, cfg)
	if err != nil {
		return fmt.Errorf("error writing config file %s: %v", cfgFileName, err)
	}
	fmt.Fprintf(c.App.Writer, "config file %s written.\n", cfgFileName)
	return nil
}
