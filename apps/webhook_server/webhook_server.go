package main

import (
	"fmt"
	"os"

	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/search"
	"github.com/artefactual-labs/scope-services/util/cli"
	"github.com/artefactual-labs/scope-services/webhook"
)

func main() {
	cli.Init()
	opts := cli.ParseOpts()
	if opts.PrintHelp {
		printHelp()
		cli.PrintDefaults()
		os.Exit(0)
	}

	ctx := common.NewContext()
	store := datastore.NewStore(
		ctx.DB,
		search.NewClient(ctx.ESClient, ctx.Logger),
		ctx.NSQClient,
		ctx.Logger)
	if err := store.AutoMigrate(); err != nil {
		panic(fmt.Sprintf("Cannot migrate database: %v", err))
	}

	server := webhook.NewServer(ctx, store, ctx.NSQClient)
	if err := server.ListenAndServe(); err != nil {
		panic(err)
	}
}

func printHelp() {
	message := `
webhook_server serves the API the Storage Service calls when it stores a
new DIP: POST /api/v1/dip/<uuid>/stored. An accepted notification creates
a pending DIP and queues its import on the dip_import topic. Requests must
carry the configured token and an Origin header naming a configured
Storage Service host.`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
