package main

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var leaderboard = cli.Command{
	Name:  "leaderboard",
	Usage: "list the users that traded the most value",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "limit", Usage: "the max number of users", Value: 20},
	},
	Action: leaderboardAction,
}

var stats = cli.Command{
	Name:   "stats",
	Usage:  "print platform wide statistics",
	Action: statsAction,
}

var users = cli.Command{
	Name:  "user",
	Usage: "look up users",
	Subcommands: []*cli.Command{
		{
			Name:  "get",
			Usage: "get a user profile",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id", Usage: "the user id", Required: true},
			},
			Action: getUserAction,
		},
		{
			Name:  "search",
			Usage: "search users by username",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "query", Usage: "part of the username", Required: true},
			},
			Action: searchUsersAction,
		},
		{
			Name:   "trades",
			Usage:  "list your completed trades",
			Action: tradesAction,
		},
	},
}

var inventory = cli.Command{
	Name:  "inventory",
	Usage: "manage the items you own",
	Subcommands: []*cli.Command{
		{
			Name:  "add",
			Usage: "add an item to your inventory",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "item", Usage: "the item", Required: true},
				&cli.Float64Flag{Name: "amount", Usage: "the amount", Value: 1},
			},
			Action: addInventoryItemAction,
		},
		{
			Name:  "remove",
			Usage: "remove an item from your inventory",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "id", Usage: "the inventory item id", Required: true},
			},
			Action: removeInventoryItemAction,
		},
	},
}

func leaderboardAction(ctx *cli.Context) error {
	return callAndPrint(
		http.MethodGet, fmt.Sprintf("/leaderboard?limit=%d", ctx.Int("limit")), nil,
	)
}

func statsAction(ctx *cli.Context) error {
	return callAndPrint(http.MethodGet, "/stats", nil)
}

func getUserAction(ctx *cli.Context) error {
	return callAndPrint(http.MethodGet, "/users/"+url.PathEscape(ctx.String("id")), nil)
}

func searchUsersAction(ctx *cli.Context) error {
	query := url.Values{}
	query.Set("q", ctx.String("query"))
	return callAndPrint(http.MethodGet, "/users/search?"+query.Encode(), nil)
}

func tradesAction(ctx *cli.Context) error {
	return callAndPrint(http.MethodGet, "/users/me/trades", nil)
}

func addInventoryItemAction(ctx *cli.Context) error {
	return callAndPrint(http.MethodPost, "/users/me/inventory", map[string]interface{}{
		"item":   ctx.String("item"),
		"amount": ctx.Float64("amount"),
	})
}

func removeInventoryItemAction(ctx *cli.Context) error {
	path := "/users/me/inventory/" + url.PathEscape(ctx.String("id"))
	if err := callAndPrint(http.MethodDelete, path, nil); err != nil {
		return err
	}
	fmt.Fprintln(out, "item removed")
	return nil
}
