package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iov-one/blendsafe"
	"github.com/iov-one/blendsafe/commands/server"
	"github.com/iov-one/blendsafe/x/wallet"
	"github.com/tendermint/tendermint/libs/log"
)

var (
	flagHome = "home"
	varHome  *string
)

func init() {
	defaultHome := filepath.Join(os.ExpandEnv("$HOME"), ".blendsafe")
	varHome = flag.String(flagHome, defaultHome, "directory to store files under")

	flag.CommandLine.Usage = helpMessage
}

func helpMessage() {
	fmt.Println("blendsafed")
	fmt.Println("          Multi signer wallet service")
	fmt.Println("")
	fmt.Println("help      Print this message")
	fmt.Println("init      Write a new configuration file")
	fmt.Println("start     Run the wallet API")
	fmt.Println("keyserver Run the local key service as a remote signing gateway")
	fmt.Println("validate  Check the configuration and its genesis wallets")
	fmt.Println("version   Print the app version")
	fmt.Println(`
  -home string
        directory to store files under (default "$HOME/.blendsafe")`)
}

func main() {
	logger := log.NewTMLogger(log.NewSyncWriter(os.Stdout)).
		With("module", "blendsafe")

	flag.Parse()
	if flag.NArg() == 0 {
		fmt.Println("Missing command:")
		helpMessage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)
	rest := flag.Args()[1:]

	var err error
	switch cmd {
	case "help":
		helpMessage()
	case "init":
		err = server.InitCmd(logger, *varHome, rest)
	case "start":
		err = server.StartCmd(logger, *varHome, rest)
	case "keyserver":
		err = server.KeyServerCmd(logger, *varHome, rest)
	case "validate":
		err = server.ValidateCmd(&wallet.Initializer{}, *varHome, rest)
	case "version":
		fmt.Println(blendsafe.Version())
	default:
		err = fmt.Errorf("unknown command: %s", cmd)
	}

	if err != nil {
		fmt.Printf("Error: %+v\n\n", err)
		helpMessage()
		os.Exit(1)
	}
}
