package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strings"

	"google.golang.org/grpc"

	"xdao.co/permit/grpcpermit"
	"xdao.co/permit/journal"
	"xdao.co/permit/journal/registry"
	"xdao.co/permit/permit"

	_ "xdao.co/permit/journal/localfs"
	_ "xdao.co/permit/journal/memstore"
)

func main() {
	fs := flag.NewFlagSet("xdao-permitd", flag.ExitOnError)
	listen := fs.String("listen", "127.0.0.1:7787", "listen address")
	contextID := fs.String("context", "", "execution context identifier (required)")
	backend := fs.String("journal", "mem", "journal backend name")
	mirrors := fs.String("mirror", "", "comma-separated journal backends to mirror receipts to")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")

	registry.RegisterFlags(fs, registry.UsageDaemon)

	_ = fs.Parse(os.Args[1:])
	if *listBackends {
		for _, b := range registry.List(registry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(os.Stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(os.Stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return
	}
	if *contextID == "" {
		fmt.Fprintln(os.Stderr, "xdao-permitd: --context is required")
		os.Exit(2)
	}

	store, closers, err := openJournal(*backend, *mirrors)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer func() {
		for _, closeFn := range closers {
			_ = closeFn()
		}
	}()

	orch := permit.New(*contextID, permit.NewMemLedger(), store)

	lis, err := net.Listen("tcp", *listen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer lis.Close()

	s := grpc.NewServer()
	grpcpermit.RegisterPermitServer(s, &grpcpermit.Server{Orchestrator: orch})

	fmt.Fprintf(os.Stderr, "xdao-permitd listening on %s (context=%s journal=%s)\n",
		lis.Addr().String(), *contextID, *backend)
	if err := s.Serve(lis); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openJournal(primary, mirrors string) (journal.Store, []func() error, error) {
	store, closeFn, err := registry.Open(primary, registry.UsageDaemon)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{}
	if closeFn != nil {
		closers = append(closers, closeFn)
	}
	if mirrors == "" {
		return store, closers, nil
	}

	fanout := journal.Fanout{Backends: []journal.NamedStore{{Name: primary, Store: store}}}
	for _, name := range strings.Split(mirrors, ",") {
		name = strings.TrimSpace(name)
		if name == "" || name == primary {
			continue
		}
		mirror, mirrorClose, err := registry.Open(name, registry.UsageDaemon)
		if err != nil {
			for _, c := range closers {
				_ = c()
			}
			return nil, nil, err
		}
		if mirrorClose != nil {
			closers = append(closers, mirrorClose)
		}
		fanout.Backends = append(fanout.Backends, journal.NamedStore{Name: name, Store: mirror})
	}
	return fanout, closers, nil
}
