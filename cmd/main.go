package main

import (
	"log"
)

func main() {
	log.SetFlags(log.Lshortfile | log.Ldate | log.Ltime)
	if err := Execute(); err != nil {
		log.Fatal(err)
	}
}
