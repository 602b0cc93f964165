package main

import (
	"fmt"
	"io"
	"os"

	profiling2 "github.com/emallson/profiling2-decode"
)

func runDecompress(args []string) error {
	fs := newFlagSet("decompress")
	raw := fs.Bool("raw", false, "print the UTF-8 decoding of the inflated bytes instead of a hex dump")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("decompress: expected exactly one printable blob argument (use '-' to read from stdin)")
	}

	printable := fs.Arg(0)
	if printable == "-" {
		b, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("decompress: read stdin: %w", err)
		}
		printable = string(b)
	}

	if *raw {
		s, err := profiling2.DecompressString(printable)
		if err != nil {
			return fmt.Errorf("decompress: %w", err)
		}
		fmt.Println(s)
		return nil
	}

	b, err := profiling2.Decompress(printable)
	if err != nil {
		return fmt.Errorf("decompress: %w", err)
	}
	fmt.Printf("%x\n", b)
	return nil
}
