package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/thanhpk/randstr"
	"github.com/urfave/cli/v2"

	"github.com/postmix/forwardd/internal/config"
	"github.com/postmix/forwardd/internal/core/application"
	"github.com/postmix/forwardd/internal/core/ports"
	"github.com/postmix/forwardd/internal/infrastructure/pubsub"
	"github.com/postmix/forwardd/internal/infrastructure/resolver"
	dbbadger "github.com/postmix/forwardd/internal/infrastructure/storage/db/badger"
	"github.com/postmix/forwardd/pkg/bitaps"
)

func main() {
	app := &cli.App{
		Name:  "forward",
		Usage: "operator CLI for the forwardd payment forwarding daemon",
		Commands: []*cli.Command{
			createAddressCmd(), stateCmd(), syncCmd(), webhookCmd(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

type services struct {
	repoManager   ports.RepoManager
	pubsub        ports.SecurePubSub
	forwardingSvc application.ForwardingService
	aggregator    application.AddressStateAggregator
	gateway       bitaps.Service
	close         func()
}

func buildServices() (*services, error) {
	if err := config.InitConfig(); err != nil {
		return nil, err
	}

	repoManager, err := dbbadger.NewRepoManager(config.GetDbDir(), nil)
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}

	webhookStore, err := pubsub.NewStore(config.GetDbDir(), nil)
	if err != nil {
		repoManager.Close()
		return nil, err
	}
	pubsubSvc, err := pubsub.NewService(webhookStore)
	if err != nil {
		repoManager.Close()
		webhookStore.Close()
		return nil, err
	}

	gateway, err := bitaps.NewService(config.GetString(config.GatewayURLKey))
	if err != nil {
		repoManager.Close()
		webhookStore.Close()
		return nil, err
	}

	ownerResolver := resolver.NewAddressOwnerResolver(repoManager)
	currencyResolver := resolver.NewCurrencyResolver(config.GetCurrencies())
	detector := application.NewConfirmationDetector(pubsubSvc, ownerResolver)
	reconciler := application.NewTransactionReconciler(repoManager, detector)

	return &services{
		repoManager: repoManager,
		pubsub:      pubsubSvc,
		forwardingSvc: application.NewForwardingService(
			gateway, repoManager, reconciler, currencyResolver,
			config.GetString(config.CurrencyKey),
			config.GetString(config.CallbackLinkKey),
		),
		aggregator: application.NewAddressStateAggregator(repoManager),
		gateway:    gateway,
		close: func() {
			repoManager.Close()
			webhookStore.Close()
		},
	}, nil
}

func createAddressCmd() *cli.Command {
	return &cli.Command{
		Name:  "create",
		Usage: "create a new forwarding address",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "forward",
				Usage:    "merchant destination address funds are swept to",
				Required: true,
			},
			&cli.UintFlag{
				Name:  "confirmations",
				Usage: "required confirmation count before sweeping",
			},
		},
		Action: func(c *cli.Context) error {
			svc, err := buildServices()
			if err != nil {
				return err
			}
			defer svc.close()

			confirmations := uint32(c.Uint("confirmations"))
			if confirmations == 0 {
				confirmations = uint32(config.GetInt(config.DefaultConfirmationsKey))
			}

			address, err := svc.forwardingSvc.CreateAddress(
				context.Background(), c.String("forward"), confirmations,
			)
			if err != nil {
				return err
			}
			return printJSON(address)
		},
	}
}

func stateCmd() *cli.Command {
	return &cli.Command{
		Name:      "state",
		Usage:     "show payment statistics of a forwarding address",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "remote",
				Usage: "query the gateway instead of the local state",
			},
		},
		Action: func(c *cli.Context) error {
			addr := c.Args().First()
			if len(addr) <= 0 {
				return fmt.Errorf("missing address argument")
			}

			svc, err := buildServices()
			if err != nil {
				return err
			}
			defer svc.close()

			ctx := context.Background()
			if c.Bool("remote") {
				address, err := svc.forwardingSvc.GetAddress(ctx, addr)
				if err != nil {
					return err
				}
				state, err := svc.gateway.GetAddressState(
					ctx, address.Address,
					bitaps.AccessHeaders(address.PaymentCode),
				)
				if err != nil {
					return err
				}
				return printJSON(state)
			}

			state, err := svc.aggregator.Snapshot(ctx, addr)
			if err != nil {
				return err
			}
			return printJSON(state)
		},
	}
}

func syncCmd() *cli.Command {
	return &cli.Command{
		Name:      "sync",
		Usage:     "reconcile the gateway's transaction list into local state",
		ArgsUsage: "<address>",
		Flags: []cli.Flag{
			&cli.Int64Flag{Name: "from", Usage: "list from unix timestamp"},
			&cli.Int64Flag{Name: "to", Usage: "list until unix timestamp"},
			&cli.IntFlag{Name: "limit", Usage: "page size"},
			&cli.IntFlag{Name: "page", Usage: "page number"},
		},
		Action: func(c *cli.Context) error {
			addr := c.Args().First()
			if len(addr) <= 0 {
				return fmt.Errorf("missing address argument")
			}

			svc, err := buildServices()
			if err != nil {
				return err
			}
			defer svc.close()

			outcomes, err := svc.forwardingSvc.SyncAddress(
				context.Background(), addr, bitaps.ListOptions{
					From:  c.Int64("from"),
					To:    c.Int64("to"),
					Limit: c.Int("limit"),
					Page:  c.Int("page"),
				},
			)
			if err != nil {
				return err
			}

			for _, outcome := range outcomes {
				if outcome.Err != nil {
					log.Warnf(
						"transaction %s: %s", outcome.Hash, outcome.Err,
					)
				}
			}
			return printJSON(outcomes)
		},
	}
}

func webhookCmd() *cli.Command {
	return &cli.Command{
		Name:  "webhook",
		Usage: "manage confirmation webhook subscriptions",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "register an endpoint for confirmation events",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "endpoint",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "topic",
						Value: ports.TopicTransactionConfirmed,
					},
					&cli.StringFlag{
						Name:  "secret",
						Usage: "shared secret used to sign payloads, generated when omitted",
					},
				},
				Action: func(c *cli.Context) error {
					svc, err := buildServices()
					if err != nil {
						return err
					}
					defer svc.close()

					secret := c.String("secret")
					if len(secret) <= 0 {
						secret = randstr.Hex(16)
					}

					id, err := svc.pubsub.Subscribe(
						c.String("topic"), c.String("endpoint"), secret,
					)
					if err != nil {
						return err
					}
					return printJSON(map[string]string{
						"id": id, "secret": secret,
					})
				},
			},
			{
				Name:      "remove",
				Usage:     "remove a webhook subscription",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id := c.Args().First()
					if len(id) <= 0 {
						return fmt.Errorf("missing subscription id argument")
					}

					svc, err := buildServices()
					if err != nil {
						return err
					}
					defer svc.close()

					return svc.pubsub.Unsubscribe("", id)
				},
			},
			{
				Name:  "list",
				Usage: "list webhook subscriptions for a topic",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "topic",
						Value: ports.TopicTransactionConfirmed,
					},
				},
				Action: func(c *cli.Context) error {
					svc, err := buildServices()
					if err != nil {
						return err
					}
					defer svc.close()

					subs := svc.pubsub.ListSubscriptionsForTopic(
						c.String("topic"),
					)
					list := make([]map[string]interface{}, 0, len(subs))
					for _, sub := range subs {
						list = append(list, map[string]interface{}{
							"id":       sub.Id(),
							"topic":    sub.Topic(),
							"endpoint": sub.NotifyAt(),
							"secured":  sub.IsSecured(),
						})
					}
					return printJSON(list)
				},
			},
		},
	}
}

func printJSON(v interface{}) error {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(buf))
	return nil
}
