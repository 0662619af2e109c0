package main

import (
	"context"
	"os"

	"github.com/target/storefront-go/cmd/storefront/cmd"
)

func main() {
	os.Exit(cmd.Execute(context.Background(), cmd.Options{})) //nolint:forbidigo // Main entrypoint exits with the command's status.
}
