package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/postmix/forwardd/internal/config"
	"github.com/postmix/forwardd/internal/core/application"
	dbbadger "github.com/postmix/forwardd/internal/infrastructure/storage/db/badger"
	"github.com/postmix/forwardd/internal/infrastructure/pubsub"
	"github.com/postmix/forwardd/internal/infrastructure/resolver"
	httpinterface "github.com/postmix/forwardd/internal/interfaces/http"
	"github.com/postmix/forwardd/pkg/bitaps"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.WithError(err).Fatal("invalid config")
	}
	log.SetLevel(log.Level(config.GetInt(config.LogLevelKey)))

	repoManager, err := dbbadger.NewRepoManager(config.GetDbDir(), nil)
	if err != nil {
		log.WithError(err).Fatal("error while opening db")
	}
	defer repoManager.Close()

	webhookStore, err := pubsub.NewStore(config.GetDbDir(), nil)
	if err != nil {
		log.WithError(err).Fatal("error while opening webhooks db")
	}
	defer webhookStore.Close()

	pubsubSvc, err := pubsub.NewService(webhookStore)
	if err != nil {
		log.WithError(err).Fatal("error while setting up pubsub service")
	}

	gateway, err := bitaps.NewService(config.GetString(config.GatewayURLKey))
	if err != nil {
		log.WithError(err).Fatal("error while setting up gateway service")
	}

	listenAddr := config.GetString(config.CallbackListenAddrKey)

	ownerResolver := resolver.NewAddressOwnerResolver(repoManager)
	currencyResolver := resolver.NewCurrencyResolver(config.GetCurrencies())
	detector := application.NewConfirmationDetector(pubsubSvc, ownerResolver)
	reconciler := application.NewTransactionReconciler(repoManager, detector)
	forwardingSvc := application.NewForwardingService(
		gateway, repoManager, reconciler, currencyResolver,
		config.GetString(config.CurrencyKey), callbackLink(listenAddr),
	)

	server := httpinterface.NewServer(
		listenAddr,
		httpinterface.NewCallbackHandler(forwardingSvc, reconciler),
	)
	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("error while serving callback interface")
		}
	}()
	log.Infof("callback interface is listening on %s", listenAddr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.WithError(err).Warn("error while shutting down callback interface")
	}

	log.Info("exiting")
}

// callbackLink returns the configured callback link, falling back to the
// daemon's own callback route.
func callbackLink(listenAddr string) string {
	if link := config.GetString(config.CallbackLinkKey); len(link) > 0 {
		return link
	}
	host := listenAddr
	if strings.HasPrefix(host, ":") {
		host = "localhost" + host
	}
	return fmt.Sprintf("http://%s%s", host, httpinterface.CallbackRoute)
}
