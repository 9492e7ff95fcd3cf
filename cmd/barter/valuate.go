package main

import (
	"net/http"

	"github.com/urfave/cli/v2"
)

var valuate = cli.Command{
	Name:  "valuate",
	Usage: "estimate how many units of an item are worth what you have",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "have",
			Usage:    "the item you have",
			Required: true,
		},
		&cli.Float64Flag{
			Name:  "amount",
			Usage: "the amount of the item you have",
			Value: 1,
		},
		&cli.StringFlag{
			Name:     "want",
			Usage:    "the item you want",
			Required: true,
		},
	},
	Action: valuateAction,
}

func valuateAction(ctx *cli.Context) error {
	return callAndPrint(http.MethodPost, "/valuate", map[string]interface{}{
		"haveItem":   ctx.String("have"),
		"haveAmount": ctx.Float64("amount"),
		"wantItem":   ctx.String("want"),
	})
}
