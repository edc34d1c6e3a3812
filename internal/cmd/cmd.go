// Package cmd implements reqfile's CLI.
package cmd

import (
	"go.followtheprocess.codes/cli"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// defaultRoot is the default project root, the current directory.
const defaultRoot = "."

// Build builds and returns the reqfile CLI.
func Build() (*cli.Command, error) {
	return cli.New(
		"reqfile",
		cli.Short("A command line toolkit for .http request files"),
		cli.Version(version),
		cli.Commit(commit),
		cli.BuildDate(date),
		cli.Example("Import a curl command copied from the browser", "pbpaste | reqfile import --format curl"),
		cli.Example("Import a Postman collection into the project", "reqfile import ./collection.json"),
		cli.Example("Export a request file as a curl command", "reqfile export ./login.http --format curl"),
		cli.Example("Check for problems in every request file (recursively)", "reqfile check ./http-client-plus"),
		cli.Example("Rewrite request files in their canonical form", "reqfile fmt ./http-client-plus"),
		cli.Example("List the saved collections", "reqfile ls"),
		cli.SubCommands(importCmd, export, fmtCmd, check, ls, env),
	)
}
