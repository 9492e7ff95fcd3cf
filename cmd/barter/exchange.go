package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var (
	exchangeIDFlag = cli.StringFlag{
		Name:     "id",
		Usage:    "the exchange id",
		Required: true,
	}
	pageFlag = cli.IntFlag{
		Name:  "page",
		Usage: "the page number",
		Value: 1,
	}
	limitFlag = cli.IntFlag{
		Name:  "limit",
		Usage: "the max number of entries",
		Value: 20,
	}
)

var exchanges = cli.Command{
	Name:  "exchange",
	Usage: "manage barter exchanges",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "propose a new exchange",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "offer", Usage: "the offered item", Required: true},
				&cli.Float64Flag{Name: "offer_amount", Usage: "the offered amount", Value: 1},
				&cli.StringFlag{Name: "request", Usage: "the requested item", Required: true},
				&cli.Float64Flag{Name: "request_amount", Usage: "the requested amount", Value: 1},
				&cli.StringFlag{Name: "recipient", Usage: "reserve the exchange to this user id"},
			},
			Action: createExchangeAction,
		},
		{
			Name:   "feed",
			Usage:  "list the most recent exchanges",
			Flags:  []cli.Flag{&pageFlag, &limitFlag},
			Action: feedAction,
		},
		{
			Name:   "mine",
			Usage:  "list the exchanges you are part of",
			Action: mineAction,
		},
		{
			Name:   "get",
			Usage:  "get an exchange",
			Flags:  []cli.Flag{&exchangeIDFlag},
			Action: exchangeAction(http.MethodGet, ""),
		},
		{
			Name:   "accept",
			Usage:  "accept an exchange",
			Flags:  []cli.Flag{&exchangeIDFlag},
			Action: exchangeAction(http.MethodPost, "/accept"),
		},
		{
			Name:   "cancel",
			Usage:  "cancel an exchange you proposed",
			Flags:  []cli.Flag{&exchangeIDFlag},
			Action: exchangeAction(http.MethodPost, "/cancel"),
		},
		{
			Name:  "negotiate",
			Usage: "add a message, and optionally a counter offer, to an exchange",
			Flags: []cli.Flag{
				&exchangeIDFlag,
				&cli.StringFlag{Name: "message", Usage: "the message", Required: true},
				&cli.StringFlag{Name: "counter_item", Usage: "the item of the counter offer"},
				&cli.Float64Flag{Name: "counter_amount", Usage: "the amount of the counter offer", Value: 1},
			},
			Action: negotiateAction,
		},
		{
			Name:  "rate",
			Usage: "rate the counterpart of a completed exchange",
			Flags: []cli.Flag{
				&exchangeIDFlag,
				&cli.IntFlag{Name: "score", Usage: "score in range [1, 5]", Required: true},
			},
			Action: rateAction,
		},
	},
}

func createExchangeAction(ctx *cli.Context) error {
	body := map[string]interface{}{
		"offer": map[string]interface{}{
			"item":   ctx.String("offer"),
			"amount": ctx.Float64("offer_amount"),
		},
		"request": map[string]interface{}{
			"item":   ctx.String("request"),
			"amount": ctx.Float64("request_amount"),
		},
	}
	if recipient := ctx.String("recipient"); recipient != "" {
		body["recipientId"] = recipient
	}
	return callAndPrint(http.MethodPost, "/exchanges", body)
}

func feedAction(ctx *cli.Context) error {
	query := url.Values{}
	query.Set("page", fmt.Sprint(ctx.Int("page")))
	query.Set("limit", fmt.Sprint(ctx.Int("limit")))
	return callAndPrint(http.MethodGet, "/exchanges/feed?"+query.Encode(), nil)
}

func mineAction(ctx *cli.Context) error {
	return callAndPrint(http.MethodGet, "/exchanges/mine", nil)
}

func exchangeAction(method, suffix string) cli.ActionFunc {
	return func(ctx *cli.Context) error {
		path := "/exchanges/" + url.PathEscape(ctx.String("id")) + suffix
		return callAndPrint(method, path, nil)
	}
}

func negotiateAction(ctx *cli.Context) error {
	body := map[string]interface{}{
		"message": ctx.String("message"),
	}
	if item := ctx.String("counter_item"); item != "" {
		body["counterOffer"] = map[string]interface{}{
			"item":   item,
			"amount": ctx.Float64("counter_amount"),
		}
	}
	path := "/exchanges/" + url.PathEscape(ctx.String("id")) + "/negotiate"
	return callAndPrint(http.MethodPost, path, body)
}

func rateAction(ctx *cli.Context) error {
	path := "/exchanges/" + url.PathEscape(ctx.String("id")) + "/rate"
	return callAndPrint(http.MethodPost, path, map[string]int{
		"score": ctx.Int("score"),
	})
}
