package main

import (
	"log"
	"os"

	"github.com/dtnitsch/dam-storage/internal/dam"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := dam.NewApp(version).Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
