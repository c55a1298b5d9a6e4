package main

import "github.com/AustralianCyberSecurityCentre/timing-bloom/cmd"

func main() {
	cmd.Execute()
}
