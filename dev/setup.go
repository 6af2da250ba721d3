package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	devenv "bookbargain-backend/dev/env"
	configsqlite "bookbargain-backend/lib/configutil/sqlite"
	"bookbargain-backend/services/bookprice/db"
)

func cmd(name string, args ...string) error {
	c := exec.Command(name, args...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	fmt.Printf("$ %s %s\n", name, strings.Join(args, " "))
	return c.Run()
}

func CreateLocalStack() error {
	return cmd("docker", "compose", "-f", "dev/local_stack/docker-compose.yml", "up", "-d")
}

func CreateEmptyDB() error {
	path, err := devenv.ResolvePath("<dev_state>/bookbargain.db")
	if err != nil {
		return err
	}

	_, err = os.Stat(path)
	if err == nil {
		fmt.Println("database already created at", path)
		return nil
	}

	fmt.Println("creating database at", path)
	conn, err := configsqlite.Struct{File: path}.OpenDB(db.Schema)
	if err != nil {
		return err
	}
	return conn.Close()
}

func PrintConfigLocations() {
	slog.Info("point database.file at dev/.state/bookbargain.db in config.local.json5 to use the dev database.")
	slog.Info("live scraper tests run only when dev/.state/scraper_live.json5 exists, see `go test -v ./services/bookprice/scraper` for its format.")
}
