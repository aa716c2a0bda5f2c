package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-kit/kit/log"
	"github.com/spf13/cobra"

	"github.com/fluxcd/kubeingest/pkg/http/server"
)

type serveOpts struct {
	*rootOpts
	listenAddr string
}

func newServe(parent *rootOpts) *serveOpts {
	return &serveOpts{rootOpts: parent}
}

func (opts *serveOpts) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve rendering over HTTP.",
		Long: `Serve rendering over HTTP. POST manifests to /v1/render; the kinds
that can be rendered are listed at /v1/kinds, and metrics are at /metrics.`,
		RunE: opts.RunE,
	}
	cmd.Flags().StringVar(&opts.listenAddr, "listen", ":3031", "address to listen on")
	return cmd
}

func (opts *serveOpts) RunE(cmd *cobra.Command, args []string) error {
	if len(args) != 0 {
		return errorWantedNoArgs
	}
	logger := opts.logger()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigc)

	errc := make(chan error, 1)
	go func() {
		logger := log.With(logger, "component", "http")
		handler := server.NewHandler(server.Server{
			Ingester: opts.ingester(),
			Version:  getVersion(),
		}, server.NewRouter(), logger)
		logger.Log("addr", opts.listenAddr)
		errc <- http.ListenAndServe(opts.listenAddr, handler)
	}()

	select {
	case sig := <-sigc:
		logger.Log("exiting", sig)
		return nil
	case err := <-errc:
		logger.Log("exiting", err)
		return err
	}
}
