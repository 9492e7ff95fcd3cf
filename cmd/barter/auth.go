package main

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/urfave/cli/v2"
)

var (
	usernameFlag = cli.StringFlag{
		Name:     "username",
		Usage:    "account username, or email on login",
		Required: true,
	}
	emailFlag = cli.StringFlag{
		Name:     "email",
		Usage:    "account email",
		Required: true,
	}
	passwordFlag = cli.StringFlag{
		Name:     "password",
		Usage:    "account password",
		Required: true,
	}
)

var register = cli.Command{
	Name:   "register",
	Usage:  "create a new account and store its session token",
	Flags:  []cli.Flag{&usernameFlag, &emailFlag, &passwordFlag},
	Action: registerAction,
}

var login = cli.Command{
	Name:   "login",
	Usage:  "log in and store the session token",
	Flags:  []cli.Flag{&usernameFlag, &passwordFlag},
	Action: loginAction,
}

var me = cli.Command{
	Name:   "me",
	Usage:  "print the logged in account",
	Action: meAction,
}

func registerAction(ctx *cli.Context) error {
	return authenticate("/auth/register", map[string]string{
		"username": ctx.String("username"),
		"email":    ctx.String("email"),
		"password": ctx.String("password"),
	})
}

func loginAction(ctx *cli.Context) error {
	return authenticate("/auth/login", map[string]string{
		"username": ctx.String("username"),
		"password": ctx.String("password"),
	})
}

func meAction(ctx *cli.Context) error {
	return callAndPrint(http.MethodGet, "/auth/me", nil)
}

func authenticate(path string, body map[string]string) error {
	resp, err := doRequest(http.MethodPost, path, body)
	if err != nil {
		return err
	}

	var auth struct {
		User struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.Unmarshal(resp, &auth); err != nil {
		return fmt.Errorf("unable to decode response: %w", err)
	}

	if err := setState(map[string]string{
		"token":    auth.Token,
		"user_id":  auth.User.ID,
		"username": auth.User.Username,
	}); err != nil {
		return err
	}

	fmt.Fprintf(out, "logged in as %s\n", auth.User.Username)
	return nil
}
