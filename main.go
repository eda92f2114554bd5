package main

import (
	"github.com/swelldreams/kasactl/cmd"
)

func main() {
	cmd.Execute()
}
