// Command initvault creates the vault directory and database schema without
// setting a master password. It is meant for provisioning scripts.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/Hussein-Mazeh/passvault/internal/config"
	"github.com/Hussein-Mazeh/passvault/internal/db"
)

func main() {
	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	paths := cfg.Paths()
	if err := paths.EnsureDir(); err != nil {
		log.Fatalf("create vault directory: %v", err)
	}

	ctx := context.Background()
	d, err := db.Open(ctx, paths.DatabasePath(), db.Options{LockTimeout: cfg.LockTimeout})
	if err != nil {
		log.Fatalf("open vault database: %v", err)
	}
	defer d.Close()

	if _, err := os.Stat(paths.ConfigPath()); os.IsNotExist(err) {
		if err := config.Save(paths.ConfigPath(), cfg); err != nil {
			log.Fatalf("write config: %v", err)
		}
	}
	fmt.Printf("vault ready at %s\n", d.Path())
}
