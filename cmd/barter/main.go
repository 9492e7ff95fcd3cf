package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/urfave/cli/v2"

	"github.com/tdex-network/barter-daemon/pkg/util"
)

const requestTimeout = 15 * time.Second

var (
	barterDataDir = btcutil.AppDataDir("barter-cli", false)
	statePath     = filepath.Join(barterDataDir, "state.json")

	out io.Writer = os.Stdout
)

func main() {
	app := newApp()

	if err := app.Run(os.Args); err != nil {
		fatal(err)
	}
}

func newApp() *cli.App {
	app := cli.NewApp()

	app.Version = "0.1.0"
	app.Name = "barter CLI"
	app.Usage = "Command line interface for the barter daemon"
	app.Commands = append(
		app.Commands,
		&config,
		&register,
		&login,
		&me,
		&valuate,
		&exchanges,
		&leaderboard,
		&stats,
		&users,
		&inventory,
	)
	return app
}

func setDatadir(dir string) {
	barterDataDir = dir
	statePath = filepath.Join(dir, "state.json")
}

func getState() (map[string]string, error) {
	data := map[string]string{}

	file, err := os.ReadFile(statePath)
	if err != nil {
		return nil, errors.New("get config state error: try 'config init'")
	}
	if err := json.Unmarshal(file, &data); err != nil {
		return nil, fmt.Errorf("invalid state file %s: %w", statePath, err)
	}

	return data, nil
}

func setState(data map[string]string) error {
	if err := os.MkdirAll(barterDataDir, os.ModeDir|0755); err != nil {
		return err
	}

	currentData := map[string]string{}
	if file, err := os.ReadFile(statePath); err == nil {
		json.Unmarshal(file, &currentData)
	}

	jsonString, err := json.Marshal(merge(currentData, data))
	if err != nil {
		return err
	}
	if err := os.WriteFile(statePath, jsonString, 0600); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}

	return nil
}

func merge(maps ...map[string]string) map[string]string {
	merge := make(map[string]string, 0)
	for _, m := range maps {
		for k, v := range m {
			merge[k] = v
		}
	}
	return merge
}

func printRespJSON(resp []byte) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, resp, "", "\t"); err != nil {
		fmt.Fprintln(out, "unable to decode response: ", err)
		return
	}
	fmt.Fprintln(out, buf.String())
}

// doRequest calls the daemon's API and returns the raw body of a successful
// response. The session token, if any, is always attached.
func doRequest(method, path string, body interface{}) ([]byte, error) {
	state, err := getState()
	if err != nil {
		return nil, err
	}
	address, ok := state["rpcserver"]
	if !ok || address == "" {
		return nil, errors.New("set rpcserver with `config set rpcserver`")
	}

	var reqBody []byte
	if body != nil {
		if reqBody, err = json.Marshal(body); err != nil {
			return nil, err
		}
	}
	header := map[string]string{"Content-Type": "application/json"}
	if token := state["token"]; token != "" {
		header["Authorization"] = "Bearer " + token
	}

	ctx, cancel := context.WithTimeout(context.Background(), requestTimeout)
	defer cancel()

	url := strings.TrimSuffix(address, "/") + "/api" + path
	status, respBody, err := util.NewHTTPRequest(
		ctx, util.NewHTTPClient(requestTimeout), method, url, reqBody, header,
	)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to daemon: %v", err)
	}
	if status < 200 || status > 299 {
		var errResp struct {
			Error string `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error != "" {
			return nil, fmt.Errorf("%s (%d)", errResp.Error, status)
		}
		return nil, fmt.Errorf("request failed with status %d", status)
	}
	return respBody, nil
}

func callAndPrint(method, path string, body interface{}) error {
	resp, err := doRequest(method, path, body)
	if err != nil {
		return err
	}
	if len(resp) > 0 {
		printRespJSON(resp)
	}
	return nil
}

type invalidUsageError struct {
	ctx     *cli.Context
	command string
}

func (e *invalidUsageError) Error() string {
	return fmt.Sprintf("invalid usage of command %s", e.command)
}

func fatal(err error) {
	var e *invalidUsageError
	if errors.As(err, &e) {
		_ = cli.ShowCommandHelp(e.ctx, e.command)
	} else {
		_, _ = fmt.Fprintf(os.Stderr, "[barter] %v\n", err)
	}
	os.Exit(1)
}
