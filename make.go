//go:build ignore
// +build ignore

/*
This program verifies the module, runs the tests and installs paypalctl and
vaultsim.

	go run make.go [-v] [-q] [-t=false] [-race] [-r]
*/
package main

import (
	"bytes"
	"flag"
	"log"
	"os"
	"os/exec"
)

var (
	verbose bool
	quiet   bool
	test    bool
	race    bool
	rebuild bool
)

var output bytes.Buffer

var installPkgs = []string{
	"github.com/lbijlsma/paypal-sdk-go/cmd/paypalctl",
	"github.com/lbijlsma/paypal-sdk-go/cmd/vaultsim",
}

func main() {
	flag.BoolVar(&verbose, "v", false, "verbose output")
	flag.BoolVar(&quiet, "q", false, "do not print anything unless there is an error")
	flag.BoolVar(&test, "t", true, "execute tests before building")
	flag.BoolVar(&race, "race", false, "run tests with the race detector")
	flag.BoolVar(&rebuild, "r", false, "force rebuilding binaries")
	flag.Parse()

	log.SetFlags(0)

	verifyModules()
	if test {
		runTests()
	}
	installBinaries()

	if !quiet {
		log.Print("Success.")
	}
}

func setCmdIO(cmd *exec.Cmd) {
	if quiet {
		cmd.Stdout = &output
		cmd.Stderr = &output
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
}

func goCmd(args ...string) error {
	cmd := exec.Command("go", args...)
	setCmdIO(cmd)
	return cmd.Run()
}

func verifyModules() {
	if verbose {
		log.Print("downloading and verifying modules...")
	}
	for _, args := range [][]string{{"mod", "download"}, {"mod", "verify"}} {
		if err := goCmd(args...); err != nil {
			log.Printf("error resolving dependencies: %v\n%s", err, output.String())
			os.Exit(1)
		}
	}
}

func runTests() {
	vet := []string{"vet"}
	tst := []string{"test"}
	if verbose {
		log.Print("running tests...")
		tst = append(tst, "-v")
	}
	if race {
		tst = append(tst, "-race")
	}
	for _, args := range [][]string{vet, tst} {
		if err := goCmd(append(args, "./...")...); err != nil {
			log.Printf("error on tests: %v\n%s", err, output.String())
			os.Exit(2)
		}
	}
}

func installBinaries() {
	args := []string{"install"}
	if verbose {
		args = append(args, "-v", "-x")
	}
	if rebuild {
		args = append(args, "-a")
	}
	for _, install := range installPkgs {
		if err := goCmd(append(args, install)...); err != nil {
			log.Printf("error building binary %s: %v\n%s", install, err, output.String())
			os.Exit(1)
		}
	}
}
