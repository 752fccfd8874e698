// Package cli implements the seengo command line interface.
package cli

import (
	"context"
	"fmt"
	"log/slog"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hupe1980/seengo"
	"github.com/hupe1980/seengo/recordstore"
	minios "github.com/hupe1980/seengo/recordstore/minio"
	s3store "github.com/hupe1980/seengo/recordstore/s3"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool

	// Backend selection: exactly one of Dir, S3Bucket, MinioEndpoint.
	Dir           string
	S3Bucket      string
	S3Prefix      string
	MinioEndpoint string
	MinioBucket   string
	MinioAccess   string
	MinioSecret   string

	ChunkSize int
}

// NewRootCommand creates the root command for the seengo CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "seengo",
		Short: "seengo - persistent processed-identifier set",
		Long:  "Inspect and manage a seengo store: count, add, export, import and clear identifiers.",
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Dir, "dir", "", "local store directory")
	cmd.PersistentFlags().StringVar(&opts.S3Bucket, "s3-bucket", "", "S3 bucket backend")
	cmd.PersistentFlags().StringVar(&opts.S3Prefix, "s3-prefix", "seen/", "S3 key prefix")
	cmd.PersistentFlags().StringVar(&opts.MinioEndpoint, "minio-endpoint", "", "MinIO endpoint backend")
	cmd.PersistentFlags().StringVar(&opts.MinioBucket, "minio-bucket", "", "MinIO bucket")
	cmd.PersistentFlags().StringVar(&opts.MinioAccess, "minio-access-key", "", "MinIO access key")
	cmd.PersistentFlags().StringVar(&opts.MinioSecret, "minio-secret-key", "", "MinIO secret key")
	cmd.PersistentFlags().IntVar(&opts.ChunkSize, "chunk-size", 0, "identifiers per chunk (default 5000)")

	cmd.AddCommand(NewCountCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewImportCommand(opts))
	cmd.AddCommand(NewClearCommand(opts))

	return cmd
}

// OpenStore builds the backend selected by the global flags and opens
// a store on it.
func (o *RootOptions) OpenStore(ctx context.Context) (*seengo.Store, error) {
	backend, err := o.openBackend(ctx)
	if err != nil {
		return nil, err
	}

	storeOpts := []seengo.Option{}
	if o.ChunkSize > 0 {
		storeOpts = append(storeOpts, seengo.WithChunkSize(o.ChunkSize))
	}
	if o.Verbose {
		storeOpts = append(storeOpts, seengo.WithLogger(seengo.NewTextLogger(slog.LevelDebug)))
	}

	return seengo.New(backend, storeOpts...)
}

func (o *RootOptions) openBackend(ctx context.Context) (recordstore.Store, error) {
	switch {
	case o.Dir != "":
		return recordstore.NewLocalStore(o.Dir)
	case o.S3Bucket != "":
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("load AWS config: %w", err)
		}
		return s3store.NewStore(awss3.NewFromConfig(cfg), o.S3Bucket, o.S3Prefix), nil
	case o.MinioEndpoint != "":
		if o.MinioBucket == "" {
			return nil, fmt.Errorf("--minio-bucket is required with --minio-endpoint")
		}
		client, err := minio.New(o.MinioEndpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(o.MinioAccess, o.MinioSecret, ""),
			Secure: true,
		})
		if err != nil {
			return nil, fmt.Errorf("minio client: %w", err)
		}
		return minios.NewStore(client, o.MinioBucket, o.S3Prefix), nil
	default:
		return nil, fmt.Errorf("select a backend: --dir, --s3-bucket or --minio-endpoint")
	}
}
