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

	worker := workers.NewDescendantDeleter(
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
descendant_deleter handles the search_delete_descendants topic. When a
Collection or DIP is removed, it deletes every search document underneath
it: the DIP and DigitalFile documents of a Collection, or the DigitalFile
documents of a DIP.`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
