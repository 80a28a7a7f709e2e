package main

import (
	"github.com/toolbridge/toolbridge/cmd"
)

func main() {
	cmd.Execute()
}
