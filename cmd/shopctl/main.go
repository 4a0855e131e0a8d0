package main

import "github.com/rl1809/crypto-shop/cmd/shopctl/cmd"

func main() {
	cmd.Execute()
}
