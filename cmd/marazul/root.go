package main

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vladislavdragonenkov/marazul/internal/app"
	"github.com/vladislavdragonenkov/marazul/internal/version"
)

// cli хранит состояние одного запуска команды.
type cli struct {
	v          *viper.Viper
	configPath string
	verbose    bool
	cfg        app.ClientConfig
	sf         *app.Storefront
	opts       []app.StorefrontOption
}

func newRootCmd(opts ...app.StorefrontOption) *cobra.Command {
	c := &cli{v: app.NewClientViper(), opts: opts}

	root := &cobra.Command{
		Use:           "marazul",
		Short:         "Tienda MarAzul desde la terminal",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd.Context())
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return c.close()
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default: <user config dir>/marazul/config.yaml)")
	flags.BoolVarP(&c.verbose, "verbose", "v", false, "enable debug logging")
	flags.String("api-url", "", "storefront API base URL")
	flags.String("storage", "", "state storage driver: memory|sqlite|redis|postgres")
	flags.String("state", "", "sqlite state file path")
	flags.String("scope", "", "key prefix that isolates this visitor's state")
	flags.Int("retries", 0, "request attempts for idempotent calls")

	for key, flag := range map[string]string{
		app.KeyAPIBaseURL:     "api-url",
		app.KeyStorageDriver:  "storage",
		app.KeyStoragePath:    "state",
		app.KeyStorageScope:   "scope",
		app.KeyAPIMaxAttempts: "retries",
	} {
		_ = c.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		c.productsCmd(),
		c.cartCmd(),
		c.loginCmd(),
		c.registerCmd(),
		c.logoutCmd(),
		c.whoamiCmd(),
		c.profileCmd(),
		c.addressesCmd(),
		c.reviewsCmd(),
		c.contactCmd(),
		c.checkoutCmd(),
		c.ordersCmd(),
		c.prefsCmd(),
		versionCmd(),
	)
	return root
}

func (c *cli) open(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if c.verbose {
		log.SetLevel(log.DebugLevel)
	}
	if err := app.ReadClientConfigFile(c.v, c.configPath); err != nil {
		return err
	}

	cfg, err := app.ClientConfigFromViper(c.v)
	if err != nil {
		return err
	}
	cfg.API.UserAgent = version.UserAgent("marazul-cli")
	c.cfg = cfg

	sf, err := app.NewStorefront(ctx, cfg, append([]app.StorefrontOption{
		app.WithStorefrontLogger(log.WithField("component", "cli")),
	}, c.opts...)...)
	if err != nil {
		return fmt.Errorf("init storefront: %w", err)
	}
	c.sf = sf
	return nil
}

func (c *cli) close() error {
	if c.sf == nil {
		return nil
	}
	err := c.sf.Close()
	c.sf = nil
	return err
}

var errArgs = errors.New("invalid arguments")

// versionCmd не открывает хранилище: свой PersistentPreRunE заменяет корневой.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Muestra la versión del cliente",
		Args:  cobra.NoArgs,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.String())
			return err
		},
	}
}
