package main

import (
	"github.com/AzielCF/az-mediaext/cmd"
)

func main() {
	cmd.Execute()
}
