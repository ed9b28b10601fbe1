package console

import (
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/AUKUS561/LSABEMA/matcher"
	"github.com/AUKUS561/LSABEMA/server"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func Command_Serve() *cobra.Command {
	cc := &cobra.Command{
		Use:   "serve",
		Short: "Run the storage/search service",
		RunE:  Command_Serve_Runfunc,
	}
	cc.Flags().Uint16("port", 0, "listening port")
	return cc
}

func Command_Serve_Runfunc(cmd *cobra.Command, args []string) error {
	e, err := prepare(cmd)
	if err != nil {
		return err
	}
	defer e.log.Sync()

	port := e.cfg.Port
	if cmd.Flags().Changed("port") {
		port, _ = cmd.Flags().GetUint16("port")
	}
	store, err := e.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	h := server.NewHandler(e.keys, store, matcher.New(e.lsabe, e.cfg.Workers, e.log), e.log)
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	addr := fmt.Sprintf(":%d", port)
	e.log.Sugar().Infof("[serve] listening on %s, keys %s, data %s", addr, e.cfg.Keypath, e.cfg.Datapath)
	err = server.Serve(ctx, addr, server.NewEngine(h))
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
