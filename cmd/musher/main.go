package main

import "github.com/seattleflu/husky-musher/cmd/musher/cmd"

func main() {
	cmd.Execute()
}
