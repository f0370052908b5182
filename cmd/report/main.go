package main

import (
	"os"
)

func main() {
	if err := newRootCmd(bootstrap).Execute(); err != nil {
		os.Exit(1)
	}
}
