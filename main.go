package main

import (
	"github.com/brk3/habitbot/cmd"
)

func main() {
	cmd.Execute()
}
