package main

import "github.com/ValentinKolb/crusher/cmd"

func main() {
	cmd.Execute()
}
