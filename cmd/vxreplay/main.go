// Command vxreplay replays a vertex data scenario on the noop backend and
// prints how every attribute of every draw was translated.
//
// Usage:
//
//	vxreplay -scenario internal/replay/testdata/basic.yaml [-v]
package main

import (
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/vertexdata"
	"github.com/gogpu/vertexdata/internal/replay"
)

func main() {
	var (
		scenario = flag.String("scenario", "", "scenario file (YAML)")
		verbose  = flag.Bool("v", false, "log buffer allocation and cache decisions")
	)
	flag.Parse()

	if *scenario == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *verbose {
		vertexdata.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	os.Exit(run(*scenario))
}

// run replays the scenario at path and returns the exit code. Deferred
// releases run before main exits.
func run(path string) int {
	s, err := replay.LoadFile(path)
	if err != nil {
		log.Printf("Failed to load scenario: %v", err)
		return 1
	}
	dev, release, err := replay.NewNoopDevice()
	if err != nil {
		log.Printf("Failed to open device: %v", err)
		return 1
	}
	defer release()

	r, err := replay.NewRunner(dev, s)
	if err != nil {
		log.Printf("Failed to prepare scenario: %v", err)
		return 1
	}
	defer r.Close()

	runErr := r.Run(func(d replay.DrawReport) {
		if d.Err != nil {
			log.Printf("draw %d: %v", d.Index, d.Err)
			return
		}
		log.Printf("draw %d:", d.Index)
		for _, a := range d.Attributes {
			log.Printf("  %v", a)
		}
	})
	log.Printf("%v", r.Stats())
	if runErr != nil {
		log.Printf("Scenario %q failed: %v", s.Name, runErr)
		return 1
	}
	return 0
}
