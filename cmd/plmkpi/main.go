package main

import (
	"os"

	"github.com/NotHilal/PLM-Hackaton/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
