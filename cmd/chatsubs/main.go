package main

import "github.com/nfrund/chatsubs/cmd/chatsubs/cmd"

func main() {
	cmd.Execute()
}
