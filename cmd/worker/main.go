package main

import (
	"log"
	"os"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: worker <show|export|grant|use> [args]")
	}

	var err error
	switch os.Args[1] {
	case "show":
		err = RunShow(os.Args[2:])
	case "export":
		err = RunExport(os.Args[2:])
	case "grant":
		err = RunGrant(os.Args[2:])
	case "use":
		err = RunUse(os.Args[2:])
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}
