package main

import "github.com/frahmantamala/travel-backoffice/cmd"

func main() {
	cmd.Execute()
}
