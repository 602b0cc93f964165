// Command profiling2 is an operator CLI around the profiling2 saved-variables
// decoder library: reading a WoW SavedVariables export, decoding individual
// recordings, sharing a recording's encounter summary with the (external)
// web dashboard, and caching decoded recordings across runs.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
)

func main() {
	log.SetFlags(0)
	log.SetPrefix("profiling2: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "decode":
		err = runDecode(os.Args[2:])
	case "decompress":
		err = runDecompress(os.Args[2:])
	case "login":
		err = runLogin(os.Args[2:])
	case "share":
		err = runShare(os.Args[2:])
	case "verify-share":
		err = runVerifyShare(os.Args[2:])
	case "cache":
		err = runCache(os.Args[2:])
	case "serve":
		err = runServe(os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "profiling2: unknown subcommand %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatalf("%v", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: profiling2 <subcommand> [flags]

subcommands:
  decode        decode a saved-variables file and print recording summaries
  decompress    print-decode and inflate a single recording's raw blob
  login         store a hashed upload-service passphrase in the credential directory
  share         mint a signed share token for one recording's encounter metadata
  verify-share  verify a share token minted by "share"
  cache         populate the on-disk decoded-recording cache
  serve         run a standalone progress WebSocket server (no decode feeds it;
                use "decode --serve" to stream decode progress)`)
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: profiling2 %s [flags]\n", name)
		fs.PrintDefaults()
	}
	return fs
}
