package main

import "github.com/researchaccelerator-hub/innertube-miner/cmd"

func main() {
	cmd.Execute()
}
