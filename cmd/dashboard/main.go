package main

import (
	"flag"
	"log"

	"saaspulse-sim/internal/dashboard"
)

func main() {
	out := flag.String("out", "build", "output directory for rendered dashboards")
	flag.Parse()
	if err := dashboard.Render(*out, dashboard.DefaultTables()); err != nil {
		log.Fatal(err)
	}
}
