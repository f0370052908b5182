package main

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"skyscraper-platform/internal/app"
	"skyscraper-platform/internal/report"
	"skyscraper-platform/internal/repository"
	"skyscraper-platform/internal/services"
	"skyscraper-platform/pkg/logging"
)

// bootstrapFunc builds the runtime a command works on
type bootstrapFunc func(ctx context.Context) (*app.Runtime, error)

func bootstrap(ctx context.Context) (*app.Runtime, error) {
	return app.Bootstrap(ctx, "skyscraper-report", "skyscraper_report")
}

// reportEnv is what a subcommand gets once the runtime is up
type reportEnv struct {
	rt      *app.Runtime
	service *services.RankingService
	printer *report.Printer
	verbose bool
	v       *viper.Viper
}

func newRootCmd(boot bootstrapFunc) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("SKYSCRAPER_REPORT")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root := &cobra.Command{
		Use:   "report",
		Short: "Print skyscraper rankings",
		Long: `Report prints the city, country, region and world rankings computed from
the stored city documents, and exports them as text files.

Ratings weight every tower by its height tier. Brief reports list members
best rated first; --verbose describes every member.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolP("verbose", "v", false, "Describe every member instead of listing them")
	root.PersistentFlags().Bool("color", false, "Style headings for a terminal")
	v.BindPFlag("verbose", root.PersistentFlags().Lookup("verbose"))
	v.BindPFlag("color", root.PersistentFlags().Lookup("color"))

	// run wraps a subcommand body with runtime setup and teardown
	run := func(body func(ctx context.Context, env *reportEnv, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			rt, err := boot(ctx)
			if err != nil {
				return err
			}
			defer rt.Close()

			env := &reportEnv{
				rt:      rt,
				service: services.NewRankingService(rt.Repository(), rt.Settings, rt.Table, rt.Logger, rt.Metrics),
				printer: report.NewPrinter(cmd.OutOrStdout(), rt.Settings, rt.Table, v.GetBool("color")),
				verbose: v.GetBool("verbose"),
				v:       v,
			}
			return body(ctx, env, args)
		}
	}

	root.AddCommand(
		&cobra.Command{
			Use:   "city <name>",
			Short: "Print a city and its towers",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, env *reportEnv, args []string) error {
				city, err := env.service.City(ctx, args[0])
				if err != nil {
					return err
				}
				return env.printer.City(city, env.verbose)
			}),
		},
		&cobra.Command{
			Use:   "country <name>",
			Short: "Print a country and its cities",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, env *reportEnv, args []string) error {
				country, err := env.service.Country(ctx, args[0])
				if err != nil {
					return err
				}
				return env.printer.Country(country, env.verbose)
			}),
		},
		&cobra.Command{
			Use:   "region <name|code>",
			Short: "Print a region and its countries",
			Args:  cobra.ExactArgs(1),
			RunE: run(func(ctx context.Context, env *reportEnv, args []string) error {
				region, err := env.service.Region(ctx, args[0])
				if err != nil {
					return err
				}
				return env.printer.Region(region, env.verbose)
			}),
		},
		&cobra.Command{
			Use:   "world",
			Short: "Print the world and its regions",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, env *reportEnv, _ []string) error {
				world, err := env.service.World(ctx)
				if err != nil {
					return err
				}
				return env.printer.World(world, env.verbose)
			}),
		},
		newExportCmd(v, run),
		&cobra.Command{
			Use:   "properties",
			Short: "List every raw tower property found in the stored documents",
			Args:  cobra.NoArgs,
			RunE: run(func(ctx context.Context, env *reportEnv, _ []string) error {
				properties, err := repository.TowerProperties(ctx, env.rt.Store)
				if err != nil {
					return err
				}
				return env.printer.Properties(properties)
			}),
		},
	)

	return root
}

func newExportCmd(v *viper.Viper, run func(func(context.Context, *reportEnv, []string) error) func(*cobra.Command, []string) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write world, region, country and city reports as text files",
		Args:  cobra.NoArgs,
		RunE: run(func(ctx context.Context, env *reportEnv, _ []string) error {
			world, err := env.service.World(ctx)
			if err != nil {
				return err
			}
			regions, err := env.service.Regions(ctx)
			if err != nil {
				return err
			}

			dir := env.v.GetString("dir")
			result, err := env.printer.Export(dir, world, regions)
			if err != nil {
				return err
			}
			env.rt.Logger.Info(ctx, "[REPORT_EXPORT] Reports written", logging.Fields{
				"dir":       dir,
				"regions":   result.Regions,
				"countries": result.Countries,
				"cities":    result.Cities,
			})
			return nil
		}),
	}
	cmd.Flags().String("dir", "output/txt", "Directory the text reports are written to")
	v.BindPFlag("dir", cmd.Flags().Lookup("dir"))
	return cmd
}
