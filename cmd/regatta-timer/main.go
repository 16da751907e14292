package main

import "github.com/oshokin/regatta-timer/cmd/regatta-timer/cmd"

func main() {
	cmd.Execute()
}
