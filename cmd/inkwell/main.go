package main

import "github.com/inkwell-pdf/inkwell/internal/cli"

func main() {
	cli.Execute()
}
