// Command enduser produces the signatures a bridge user needs and submits
// account-signed transactions to a node.
//
//	enduser link-proof -eth-key <hex> -account H... [domain flags]
//	enduser attest     -eth-key <hex> -action lock -amount 100 -period 30 [domain flags]
//	enduser link       -keyfile key.json -proof 0x... -node http://localhost:8080
//	enduser unlink     -keyfile key.json -external 0x... -node ...
//	enduser detach     -keyfile key.json -asset 0x... -chain goerli -target 0x... -node ...
package main

import (
	"fmt"
	"os"

	"github.com/herdius/herdius-bridge/libs/log"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: enduser <link-proof|attest|link|unlink|detach> [flags]")
	os.Exit(2)
}

func main() {
	if len(os.Args) < 2 {
		usage()
	}
	var (
		out string
		err error
	)
	switch os.Args[1] {
	case "link-proof":
		out, err = linkProofCmd(os.Args[2:])
	case "attest":
		out, err = attestCmd(os.Args[2:])
	case "link", "unlink", "detach":
		out, err = submitCmd(os.Args[1], os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		log.Error().Err(err).Msg(os.Args[1] + " failed")
		os.Exit(1)
	}
	fmt.Println(out)
}
