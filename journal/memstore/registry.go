package memstore

import (
	"flag"

	"xdao.co/permit/journal"
	"xdao.co/permit/journal/registry"
)

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "mem",
		Description: "In-memory journal (receipts lost on exit)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {},
		Open: func() (journal.Store, func() error, error) {
			return New(), nil, nil
		},
	})
}
