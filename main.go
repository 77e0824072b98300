package main

import "github/chapool/hdwallet-provider/cmd"

func main() {
	cmd.Execute()
}
