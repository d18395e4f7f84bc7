// Command vmapctl prints the host's page size and allocation granularity,
// and the rounded capacity a Ring of a requested size would actually get.
package main

import (
	"flag"
	"os"

	"go.uber.org/zap"

	"github.com/kalamay/vmap"
)

func main() {
	requested := flag.Int("ring-size", 0, "print the rounded capacity a ring of this many bytes would get")
	flag.Parse()

	logger, err := zap.NewProduction()
	if err != nil {
		os.Exit(1)
	}
	defer logger.Sync()

	info := vmap.GetPageInfo()
	logger.Info("page info",
		zap.Int("page_size", info.PageSize()),
		zap.Int("allocation_granularity", info.AllocationGranularity()),
	)

	if *requested > 0 {
		rounded := info.CeilAlloc(*requested)
		logger.Info("ring capacity",
			zap.Int("requested", *requested),
			zap.Int("capacity", rounded),
		)
	}
}
