package localfs

import (
	"flag"
	"fmt"

	"xdao.co/permit/journal"
	"xdao.co/permit/journal/registry"
)

var flagLocalDir string

func init() {
	registry.MustRegister(registry.Backend{
		Name:        "localfs",
		Description: "Local filesystem journal (directory)",
		Usage:       registry.UsageCLI | registry.UsageDaemon,
		RegisterFlags: func(fs *flag.FlagSet) {
			fs.StringVar(&flagLocalDir, "localfs-dir", "", "LocalFS journal directory (for --journal=localfs)")
		},
		Open: func() (journal.Store, func() error, error) {
			if flagLocalDir == "" {
				return nil, nil, fmt.Errorf("missing --localfs-dir")
			}
			j, err := New(flagLocalDir)
			return j, nil, err
		},
	})
}
