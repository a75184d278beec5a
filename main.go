package main

import (
	"github.com/AzielCF/az-remind/cmd"
)

func main() {
	cmd.Execute()
}
