package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/richardartoul/diskcache"
	"github.com/richardartoul/diskcache/internal/protocol"
)

// errMiss makes `get` exit non-zero without printing an error.
var errMiss = errors.New("cache miss")

func newHashCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "hash KEY",
		Short: "Print the file name a key is stored under",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(a.stdout, diskcache.Hash(args[0]))
			return err
		},
	}
}

func newGetCmd(a *app) *cobra.Command {
	var showPath bool

	cmd := &cobra.Command{
		Use:   "get KEY",
		Short: "Write the raw value cached for KEY to stdout",
		Long:  "Write the raw value cached for KEY to stdout. Exits 1 without output on a miss.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}

			data, ok, err := c.Lookup(args[0])
			if err != nil {
				return err
			}
			if !ok {
				a.logger.Debug("cache miss", "key", args[0], "hash", diskcache.Hash(args[0]))
				return errMiss
			}

			if showPath {
				_, err = fmt.Fprintln(a.stdout, c.Path(args[0]))
				return err
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
	cmd.Flags().BoolVar(&showPath, "path", false, "print the entry's path instead of its contents")
	return cmd
}

func newPutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "put KEY",
		Short: "Cache stdin under KEY unless a value is already cached",
		Long: `Cache stdin under KEY unless a value is already cached, then write the
cached value to stdout. Stdin is only read on a miss.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}

			data, err := c.GetOrComputeRaw(args[0], func() ([]byte, error) {
				a.logger.Info("no cached value found, reading stdin", "key", args[0])
				return io.ReadAll(a.stdin)
			})
			if err != nil {
				return err
			}
			_, err = a.stdout.Write(data)
			return err
		},
	}
}

func newInvalidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "invalidate KEY...",
		Aliases: []string{"rm"},
		Short:   "Remove the entries for the given keys",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			for _, key := range args {
				if err := c.InvalidateKey(key); err != nil {
					return err
				}
				a.logger.Info("invalidated", "key", key, "hash", diskcache.Hash(key))
			}
			return nil
		},
	}
}

func newFlushCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "flush",
		Short: "Remove every entry from the cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			n, err := c.Len()
			if err != nil {
				return err
			}
			if err := c.Flush(); err != nil {
				return err
			}
			a.logger.Info("flushed cache", "root", c.Root(), "entries", n)
			return nil
		},
	}
}

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve cache requests as JSON lines on stdin/stdout",
		Long: `Serve cache requests as JSON lines on stdin/stdout.

The first line written lists the supported commands. Each request is a JSON
object with ID, Command and optional Key and Body (base64) fields.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.openCache()
			if err != nil {
				return err
			}
			a.logger.Debug("serving", "root", c.Root())
			return protocol.NewServer(c, a.stdin, a.stdout).Run()
		},
	}
}
