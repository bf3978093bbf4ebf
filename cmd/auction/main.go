package main

import "github.com/JonMunkholm/auction/internal/cli"

func main() {
	cli.Execute()
}
