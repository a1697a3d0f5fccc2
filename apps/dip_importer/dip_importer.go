package main

import (
	"fmt"
	"os"

	"github.com/artefactual-labs/scope-services/util/cli"
	"github.com/artefactual-labs/scope-services/workers"
)

func main() {
	cli.Init()
	opts := cli.ParseOpts()
	if opts.PrintHelp {
		printHelp()
		cli.PrintDefaults()
		os.Exit(0)
	}

	// If anything goes wrong, this panics.
	// Otherwise, it starts handling NSQ messages immediately.
	worker := workers.NewDIPImporter(
		opts.ChannelBufferSize,
		opts.NumWorkers,
		opts.MaxAttempts,
	)

	// This channel blocks until we get an interrupt,
	// so our program does not exit without Control-C
	// or other kill signal.
	<-worker.NSQConsumer.StopChan
}

func printHelp() {
	message := `
dip_importer imports DIPs queued on the dip_import topic. For each DIP it
gets the package METS file, either from the Storage Service or out of the
uploaded package, parses the original files, PREMIS events and Dublin Core
metadata into the database and the search indexes, and marks the DIP as
imported. When an import fails for good, the DIP is marked as failed with
the error recorded on it.`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
