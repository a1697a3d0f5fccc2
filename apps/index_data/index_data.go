package main

import (
	"context"
	"fmt"
	"os"

	"github.com/artefactual-labs/scope-services/datastore"
	"github.com/artefactual-labs/scope-services/models/archive"
	"github.com/artefactual-labs/scope-services/models/common"
	"github.com/artefactual-labs/scope-services/search"
	"github.com/artefactual-labs/scope-services/util/cli"
)

func main() {
	cli.Init()
	opts := cli.ParseOpts()
	if opts.PrintHelp {
		printHelp()
		cli.PrintDefaults()
		os.Exit(0)
	}

	appCtx := common.NewContext()
	client := search.NewClient(appCtx.ESClient, appCtx.Logger)
	store := datastore.NewStore(appCtx.DB, client, appCtx.NSQClient, appCtx.Logger)
	if err := store.AutoMigrate(); err != nil {
		panic(fmt.Sprintf("Cannot migrate database: %v", err))
	}

	ctx := context.Background()
	if err := client.CreateIndexes(ctx); err != nil {
		panic(fmt.Sprintf("Cannot create indexes: %v", err))
	}

	count := 0
	index := func(doc archive.Searchable) {
		if err := client.SaveDocument(ctx, doc); err != nil {
			appCtx.Logger.Errorf("Could not index %s/%s: %v",
				doc.SearchIndex(), doc.SearchID(), err)
			return
		}
		count++
	}

	collections, err := store.AllCollections()
	if err != nil {
		panic(err)
	}
	for _, collection := range collections {
		index(collection)
	}
	dips, err := store.AllDIPs()
	if err != nil {
		panic(err)
	}
	for _, dip := range dips {
		index(dip)
	}
	files, err := store.AllDigitalFiles()
	if err != nil {
		panic(err)
	}
	for _, file := range files {
		index(file)
	}
	appCtx.Logger.Infof("Indexed %d documents", count)
	fmt.Printf("Indexed %d documents\n", count)
}

func printHelp() {
	message := `
index_data drops and recreates the search indexes, then reindexes every
Collection, DIP and DigitalFile from the database. Run it after changing
an index mapping or to recover from an Elasticsearch data loss. Search
results are incomplete while it runs.`
	fmt.Println(message)
	fmt.Println(cli.EnvMessage)
}
