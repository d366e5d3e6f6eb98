package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/robalobadob/capitals/apps/go-server/internal/imagery"
	"github.com/robalobadob/capitals/apps/go-server/internal/rng"
)

type probeConfig struct {
	token   string
	baseURL string
	timeout time.Duration
	verbose bool

	lat, lon float64
	attempts int
	delta    float64
	growth   float64
	seed     uint64
	thumb    bool

	output string
}

func (c *probeConfig) validate() error {
	if c.token == "" {
		return errors.New("a Mapillary token is required (--token or CAPITALS_TOKEN)")
	}
	if c.timeout <= 0 {
		return fmt.Errorf("invalid timeout: %v", c.timeout)
	}
	return nil
}

func (c *probeConfig) client() *imagery.Client {
	return imagery.NewClient(c.baseURL, c.token, c.timeout)
}

func newCmd(cfg *probeConfig) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("CAPITALS")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:     "imagery-probe",
		Short:   "Check street-level imagery lookups used by the capitals game.",
		Version: releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
			if cfg.verbose {
				zerolog.SetGlobalLevel(zerolog.DebugLevel)
			}
			return cfg.validate()
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})
	fs.StringVar(&cfg.token, "token", "", "Mapillary client token (env: CAPITALS_TOKEN)")
	fs.StringVar(&cfg.baseURL, "base-url", imagery.DefaultBaseURL, "Graph API base URL (env: CAPITALS_BASE_URL)")
	fs.DurationVar(&cfg.timeout, "timeout", 5*time.Second, "per-request timeout (env: CAPITALS_TIMEOUT)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "log every search attempt (env: CAPITALS_VERBOSE)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})

	cmd.AddCommand(newResolveCmd(cfg), newThumbCmd(cfg), newDownloadCmd(cfg))

	cmd.CompletionOptions.HiddenDefaultCmd = true
	cmd.SetHelpCommand(&cobra.Command{Hidden: true})
	cmd.SetVersionTemplate("imagery-probe v{{.Version}}\n")
	cmd.SilenceErrors = true
	cmd.SilenceUsage = true

	return cmd
}

func newResolveCmd(cfg *probeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Find an image near a coordinate with the widening search.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runResolve(cmd.Context(), cfg, cmd.OutOrStdout())
		},
	}
	fs := cmd.Flags()
	fs.Float64Var(&cfg.lat, "lat", 0, "latitude in degrees")
	fs.Float64Var(&cfg.lon, "lon", 0, "longitude in degrees")
	fs.IntVar(&cfg.attempts, "attempts", 5, "number of search boxes to try")
	fs.Float64Var(&cfg.delta, "delta", 0.001, "half-width of the first box in degrees")
	fs.Float64Var(&cfg.growth, "growth", 10, "box growth factor per attempt")
	fs.Uint64Var(&cfg.seed, "seed", 0, "seed for the candidate pick (0 = random)")
	fs.BoolVar(&cfg.thumb, "thumb", false, "also print the thumbnail URL")
	_ = cmd.MarkFlagRequired("lat")
	_ = cmd.MarkFlagRequired("lon")
	return cmd
}

func runResolve(ctx context.Context, cfg *probeConfig, out io.Writer) error {
	if cfg.lat < -90 || cfg.lat > 90 || cfg.lon < -180 || cfg.lon > 180 {
		return fmt.Errorf("coordinate out of range: %v,%v", cfg.lat, cfg.lon)
	}
	var r rng.Rand = rng.NewRandom()
	if cfg.seed != 0 {
		r = rng.New(cfg.seed)
	}
	client := cfg.client()
	res := imagery.NewResolver(client, r, imagery.ResolverOptions{
		Attempts:     cfg.attempts,
		InitialDelta: cfg.delta,
		Growth:       cfg.growth,
	})
	id, err := res.Resolve(ctx, cfg.lat, cfg.lon)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, id)
	if cfg.thumb {
		u, err := client.ThumbURL(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, u)
	}
	return nil
}

func newThumbCmd(cfg *probeConfig) *cobra.Command {
	return &cobra.Command{
		Use:   "thumb <image-id>",
		Short: "Print the 2048px thumbnail URL of an image.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			u, err := cfg.client().ThumbURL(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), u)
			return nil
		},
	}
}

func newDownloadCmd(cfg *probeConfig) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "download <image-id>",
		Short: "Download the thumbnail of an image.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDownload(cmd.Context(), cfg, args[0], cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVarP(&cfg.output, "output", "o", "", "file to write (default <image-id>.jpg, - for stdout)")
	return cmd
}

func runDownload(ctx context.Context, cfg *probeConfig, id string, stdout, stderr io.Writer) error {
	client := cfg.client()
	u, err := client.ThumbURL(ctx, id)
	if err != nil {
		return err
	}

	name := cfg.output
	if name == "" {
		name = id + ".jpg"
	}
	var w io.Writer = stdout
	if name != "-" {
		f, err := os.Create(name)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	n, err := client.Download(ctx, u, w)
	if err != nil {
		return err
	}
	if name != "-" {
		fmt.Fprintf(stderr, "wrote %d bytes to %s\n", n, name)
	}
	return nil
}
