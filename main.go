package main

import (
	"log"

	"github.com/letstalk-code/routecare/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
