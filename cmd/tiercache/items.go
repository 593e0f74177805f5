package main

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/spf13/cobra"
)

var errNotFound = errors.New("not found")

func newGetCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get KEY",
		Short: "Print the value stored under KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g)
			if err != nil {
				return err
			}
			defer s.close()

			it, err := s.pool.GetItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !it.IsHit() {
				return fmt.Errorf("key %q: %w", args[0], errNotFound)
			}
			_, err = cmd.OutOrStdout().Write(it.Get())
			return err
		},
	}
}

func newSetCmd(g *globalFlags) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "set KEY [VALUE]",
		Short: "Store VALUE (or stdin) under KEY",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var value []byte
			if len(args) == 2 {
				value = []byte(args[1])
			} else {
				b, err := io.ReadAll(cmd.InOrStdin())
				if err != nil {
					return fmt.Errorf("reading stdin: %w", err)
				}
				value = b
			}

			s, err := openSession(g)
			if err != nil {
				return err
			}
			defer s.close()

			it, err := s.pool.GetItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			it.Set(value)
			if ttl != 0 {
				if err := it.ExpiresAfter(ttl); err != nil {
					return err
				}
			}
			ok, err := s.pool.Save(cmd.Context(), it)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("key %q: store did not persist the value", args[0])
			}
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "lifetime of the entry (default: the configured ttl)")
	return cmd
}

func newDeleteCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:     "delete KEY...",
		Aliases: []string{"rm"},
		Short:   "Remove entries",
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g)
			if err != nil {
				return err
			}
			defer s.close()

			ok, err := s.pool.DeleteItems(cmd.Context(), slices.Values(args))
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("some entries could not be removed")
			}
			return nil
		},
	}
}

func newHasCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "has KEY",
		Short: "Report whether KEY holds a live value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g)
			if err != nil {
				return err
			}
			defer s.close()

			ok, err := s.pool.HasItem(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), ok)
			return nil
		},
	}
}

func newClearCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove every entry in the cache directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(g)
			if err != nil {
				return err
			}
			defer s.close()

			ok, err := s.pool.Clear(cmd.Context())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("cache directory was not fully cleared")
			}
			return nil
		},
	}
}
