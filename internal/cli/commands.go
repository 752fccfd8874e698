package cli

import (
	"bufio"
	"fmt"
	"os"

	"github.com/hupe1980/seengo"
	"github.com/spf13/cobra"
)

// NewCountCommand creates the count command.
func NewCountCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "count",
		Short:        "Print the running total of stored identifiers",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := rootOpts.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			total, err := store.Count(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), total)
			return nil
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:          "add <identifier>...",
		Short:        "Mark identifiers as processed",
		Args:         cobra.MinimumNArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rootOpts.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			for _, id := range args {
				res, err := store.Add(cmd.Context(), id)
				if err != nil {
					return err
				}
				if res.Added {
					fmt.Fprintf(cmd.OutOrStdout(), "added %s (total %d)\n", id, res.Total)
				} else {
					fmt.Fprintf(cmd.OutOrStdout(), "already present %s (total %d)\n", id, res.Total)
				}
			}
			return nil
		},
	}
}

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Output string
	Zstd   bool
	LZ4    bool
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "export",
		Short:        "Write all identifiers as a snapshot document",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.Zstd && opts.LZ4 {
				return fmt.Errorf("--zstd and --lz4 are mutually exclusive")
			}

			store, err := rootOpts.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			out := cmd.OutOrStdout()
			if opts.Output != "" {
				f, err := os.Create(opts.Output)
				if err != nil {
					return err
				}
				defer f.Close()
				bw := bufio.NewWriter(f)
				defer bw.Flush()
				out = bw
			}

			comp := seengo.CompressionNone
			if opts.Zstd {
				comp = seengo.CompressionZstd
			}
			if opts.LZ4 {
				comp = seengo.CompressionLZ4
			}
			return store.Export(cmd.Context(), out, comp)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default stdout)")
	cmd.Flags().BoolVar(&opts.Zstd, "zstd", false, "compress with zstandard")
	cmd.Flags().BoolVar(&opts.LZ4, "lz4", false, "compress with lz4")

	return cmd
}

// ImportOptions holds flags for the import command.
type ImportOptions struct {
	*RootOptions
	Override bool
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ImportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:          "import <file>",
		Short:        "Load identifiers from a snapshot document",
		Long:         "Load identifiers from a snapshot document (seengo export or a bare JSON array),\noptionally zstd- or lz4-compressed. Merges by default; --override replaces the store.",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := rootOpts.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			res, err := store.ImportSnapshot(cmd.Context(), f, opts.Override)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d new, %d duplicates (total %d)\n",
				res.New, res.Duplicates, res.Total)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.Override, "override", false, "replace the store instead of merging")

	return cmd
}

// NewClearCommand creates the clear command.
func NewClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:          "clear",
		Short:        "Delete every identifier and the index",
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("refusing to clear without --yes")
			}

			store, err := rootOpts.OpenStore(cmd.Context())
			if err != nil {
				return err
			}
			defer store.Close()

			if err := store.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "cleared")
			return nil
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the clear")

	return cmd
}
