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

	worker := workers.NewDescendantUpdater(
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
descendant_updater handles the search_update_descendants topic. When a
Collection or DIP changes, it rewrites the denormalized ancestor fields
on every DigitalFile document underneath it, so search results stay
consistent without reindexing the files one by one.`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
