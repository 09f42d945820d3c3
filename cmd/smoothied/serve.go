package main

import (
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cncware/smoothied/controller"
	"github.com/cncware/smoothied/httpapi"
	"github.com/cncware/smoothied/internal/config"
	"github.com/cncware/smoothied/internal/logging"
	"github.com/cncware/smoothied/macro"
	"github.com/cncware/smoothied/transport"
)

func serveCommand() *cobra.Command {
	var (
		ident    string
		port     string
		baud     int
		tcpAddr  string
		httpAddr string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Open a connection to a controller board and serve its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if httpAddr != "" {
				cfg.Addr = httpAddr
			}

			log := logging.New(cfg.LogLevel)

			var tr transport.Transport
			if tcpAddr != "" {
				tr = transport.NewTCP(tcpAddr, 0)
			} else {
				tr = transport.NewSerial(port, baud)
			}

			macros, err := macro.Open(cfg.MacroFile)
			if err != nil {
				return err
			}

			registry := controller.NewRegistry()
			ctl := controller.New(ident, tr, controller.Config{IgnoreErrors: cfg.IgnoreErrors}, macros, log.WithField("ident", ident))
			registry.Add(ctl)

			if err := ctl.Open(); err != nil {
				log.Warnf("open %s: %v", ident, err)
			}

			sighup := make(chan os.Signal, 1)
			signal.Notify(sighup, syscall.SIGHUP)
			go func() {
				for range sighup {
					if err := macros.Reload(); err != nil {
						log.Warnf("reload macros: %v", err)
					}
				}
			}()

			api := httpapi.New(registry, macros, cfg.DataDir)

			log.Infof("listening on %s", cfg.Addr)
			return http.ListenAndServe(cfg.Addr, cors(api))
		},
	}

	cmd.Flags().StringVar(&ident, "ident", "controller-1", "identity to register this connection under")
	cmd.Flags().StringVar(&port, "port", "/dev/ttyUSB0", "serial port path")
	cmd.Flags().IntVar(&baud, "baud", 115200, "serial baud rate")
	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "connect over TCP instead of serial, e.g. host:23")
	cmd.Flags().StringVar(&httpAddr, "addr", "", "address to bind the HTTP API to (overrides SMOOTHIED_ADDR)")

	return cmd
}

func cors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "*")
		h.ServeHTTP(w, r)
	})
}
