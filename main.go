package main

import "github.com/atelier-reports/flashdeck/cmd"

func main() {
	cmd.Execute()
}
