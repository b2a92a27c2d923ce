package main

import "github.com/mselser95/crossarb/cmd"

func main() {
	cmd.Execute()
}
