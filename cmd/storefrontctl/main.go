// Command storefrontctl is the operator tool for a storefront data store:
// bulk user exchange and catalog maintenance.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ariefcatur/go-storefront/internal/app"
	"github.com/ariefcatur/go-storefront/internal/config"
	"github.com/ariefcatur/go-storefront/internal/logx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	// Seeding is an explicit command here.
	cfg.SeedCatalog = false

	open := func(ctx context.Context) (*app.App, error) {
		return app.New(ctx, cfg, logx.New(os.Stderr, cfg.ServiceName+"-ctl", cfg.LogLevel))
	}
	root := newRootCmd(cfg, open)
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
