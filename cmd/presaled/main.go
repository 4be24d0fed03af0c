package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/ws"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/krazyTry/presale-go/api"
	"github.com/krazyTry/presale-go/broker"
	"github.com/krazyTry/presale-go/client"
	"github.com/krazyTry/presale-go/config"
	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale"
	"github.com/krazyTry/presale-go/settlement"
	"github.com/krazyTry/presale-go/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "presaled:", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	if !cfg.LogDevelopment {
		gin.SetMode(gin.ReleaseMode)
	}

	wallet, err := cfg.Wallet()
	if err != nil {
		return err
	}
	commitment, err := cfg.RPCCommitment()
	if err != nil {
		return err
	}

	opts := []client.Option{
		client.WithCommitment(commitment),
		client.WithSimulate(cfg.Simulate),
		client.WithMaxRetry(cfg.MaxRetry),
		client.WithLogger(logger.Named("client")),
		client.WithOwner(wallet),
	}
	if cfg.WSURL != "" {
		wsClient, err := ws.Connect(ctx, cfg.WSURL)
		if err != nil {
			return fmt.Errorf("connect %s: %w", cfg.WSURL, err)
		}
		defer wsClient.Close()
		opts = append(opts, client.WithWSClient(wsClient))
	}
	factory := client.NewPresaleFactory(rpc.New(cfg.RPCURL), opts...)

	var (
		sinks     []presale.EventSink
		apiOpts   = []api.Option{api.WithLogger(logger.Named("api"))}
		eventsLog *store.Store
	)
	if cfg.DatabaseDSN != "" {
		eventsLog, err = store.Open(cfg.DatabaseDSN, store.WithLogger(logger.Named("store")))
		if err != nil {
			return err
		}
		defer eventsLog.Close()
		if err := eventsLog.Migrate(); err != nil {
			return err
		}
		sinks = append(sinks, eventsLog)
		apiOpts = append(apiOpts, api.WithEventLog(eventsLog))
	}
	if cfg.AMQPURL != "" {
		publisher, err := broker.Dial(ctx, cfg.AMQPURL, cfg.MaxRetry,
			broker.WithExchange(cfg.AMQPExchange),
			broker.WithLogger(logger.Named("broker")))
		if err != nil {
			return err
		}
		defer publisher.Close()
		sinks = append(sinks, publisher)
	}

	g, ctx := errgroup.WithContext(ctx)

	if len(sinks) > 0 {
		if cfg.WSURL == "" {
			logger.Warn("event sinks configured without a websocket endpoint; events are not indexed")
		} else {
			g.Go(func() error {
				return factory.SubscribeEvents(ctx, func(ctx context.Context, ev presalegen.Event) error {
					var errs []error
					for _, sink := range sinks {
						errs = append(errs, sink.Emit(ctx, ev))
					}
					return errors.Join(errs...)
				})
			})
		}
	}

	if cfg.Settle {
		worker := settlement.NewWorker(
			&settlement.ClientBackend{Client: factory, Payer: wallet, Operator: wallet},
			cfg.Factory,
			settlement.WithSchedule(cfg.SettleSchedule),
			settlement.WithMaxRetry(cfg.MaxRetry),
			settlement.WithLogger(logger.Named("settlement")),
		)
		g.Go(func() error {
			return worker.Run(ctx)
		})
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.NewServer(api.ClientReader{Client: factory}, apiOpts...).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	g.Go(func() error {
		logger.Info("api listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	logger.Info("presaled started",
		zap.Stringer("factory", cfg.Factory),
		zap.Stringer("operator", wallet.PublicKey()),
		zap.Bool("simulate", cfg.Simulate))
	return g.Wait()
}
