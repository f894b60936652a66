package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lbijlsma/paypal-sdk-go/pkg/api"
	"github.com/lbijlsma/paypal-sdk-go/pkg/env"
	"github.com/lbijlsma/paypal-sdk-go/pkg/rest"
	"github.com/urfave/cli"
)

var idFlag = cli.StringFlag{
	Name:  "id",
	Usage: "Carrier account id.",
}

var carrierAccountCommand = cli.Command{
	Name:    "carrier-account",
	Aliases: []string{"ca"},
	Usage:   "Manage carrier accounts in the vault.",
	Subcommands: []cli.Command{
		{
			Name:  "create",
			Usage: "Store a carrier account. PayPal sends a PIN to the phone.",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "phone", Usage: "Phone number."},
				cli.StringFlag{Name: "source", Usage: "Phone source, i.e. PAYPAL."},
				cli.StringFlag{Name: "customer-id", Usage: "External customer id."},
				cli.StringFlag{Name: "country", Usage: "ISO 3166-1 alpha-2 country code."},
				cli.StringFlag{Name: "request-id", Usage: "PayPal-Request-Id to make the call idempotent."},
			},
			Action: createCarrierAccountAction,
		},
		{
			Name:   "get",
			Usage:  "Show a carrier account.",
			Flags:  []cli.Flag{idFlag},
			Action: getCarrierAccountAction,
		},
		{
			Name:   "delete",
			Usage:  "Delete a carrier account.",
			Flags:  []cli.Flag{idFlag},
			Action: deleteCarrierAccountAction,
		},
		{
			Name:  "confirm",
			Usage: "Confirm a carrier account with the PIN received on the phone.",
			Flags: []cli.Flag{
				idFlag,
				cli.StringFlag{Name: "pin", Usage: "Confirmation PIN."},
			},
			Action: confirmCarrierAccountAction,
		},
	},
}

func apiContext(c *cli.Context) (*rest.APIContext, error) {
	cfg, err := readConfig(c)
	if err != nil {
		return nil, err
	}
	if err := env.SetLevel(cfg.Log.Level); err != nil {
		return nil, fmt.Errorf("invalid log level: %v", err)
	}
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid config: %v", errs[0])
	}
	return rest.APIContextFromConfig(cfg), nil
}

func printAccount(c *cli.Context, acc *api.CarrierAccount) error {
	b, err := json.MarshalIndent(acc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(b))
	return nil
}

func createCarrierAccountAction(c *cli.Context) error {
	apiCtx, err := apiContext(c)
	if err != nil {
		return err
	}
	if id := c.String("request-id"); id != "" {
		apiCtx.SetRequestID(id)
	}
	acc := api.CarrierAccount{
		PhoneNumber:        c.String("phone"),
		PhoneSource:        c.String("source"),
		ExternalCustomerID: c.String("customer-id"),
	}
	if country := c.String("country"); country != "" {
		acc.CountryCode = &api.CountryCode{CountryCode: country}
	}
	created, err := acc.Create(context.Background(), apiCtx, nil)
	if err != nil {
		return fmt.Errorf("error creating carrier account: %v", err)
	}
	return printAccount(c, created)
}

func getCarrierAccountAction(c *cli.Context) error {
	apiCtx, err := apiContext(c)
	if err != nil {
		return err
	}
	acc, err := api.GetCarrierAccount(context.Background(), c.String("id"), apiCtx, nil)
	if err != nil {
		return fmt.Errorf("error getting carrier account: %v", err)
	}
	return printAccount(c, acc)
}

func deleteCarrierAccountAction(c *cli.Context) error {
	apiCtx, err := apiContext(c)
	if err != nil {
		return err
	}
	acc := api.CarrierAccount{ID: c.String("id")}
	if _, err := acc.Delete(context.Background(), apiCtx, nil); err != nil {
		return fmt.Errorf("error deleting carrier account: %v", err)
	}
	fmt.Fprintf(c.App.Writer, "carrier account %s deleted.\n", acc.ID)
	return nil
}

func confirmCarrierAccountAction(c *cli.Context) error {
	apiCtx, err := apiContext(c)
	if err != nil {
		return err
	}
	acc := api.CarrierAccount{ID: c.String("id")}
	confirmed, err := acc.Confirm(context.Background(), api.NewCarrierAccountConfirmation(c.String("pin")), apiCtx, nil)
	if err != nil {
		return fmt.Errorf("error confirming carrier account: %v", err)
	}
	return printAccount(c, confirmed)
}
