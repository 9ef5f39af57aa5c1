package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/robertmeta/catalog-cli/cache"
	"github.com/robertmeta/catalog-cli/catalog"
	"github.com/robertmeta/catalog-cli/config"
	"github.com/robertmeta/catalog-cli/feed"
	"github.com/robertmeta/catalog-cli/logging"
	"github.com/robertmeta/catalog-cli/model"
	"github.com/robertmeta/catalog-cli/opml"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
)

const (
	ExitSuccess      = 0
	ExitGeneralError = 1
	ExitUsageError   = 2
	ExitDataError    = 3
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: invalid configuration: %v\n", err)
		os.Exit(ExitUsageError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(cfg).RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitGeneralError)
	}
}

func newApp(cfg *config.Config) *cli.App {
	return &cli.App{
		Name:    "catalog-cli",
		Usage:   "Browse products merged from several retailer feeds",
		Version: "0.1.0",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "feed",
				Aliases: []string{"f"},
				Value:   cli.NewStringSlice(cfg.Feeds...),
				Usage:   "Feed location (URL or file path); repeat in feed order",
			},
			&cli.StringFlag{
				Name:  "feeds-opml",
				Value: cfg.FeedsOPML,
				Usage: "OPML file listing the feeds (overrides --feed)",
			},
			&cli.StringFlag{
				Name:  "cache",
				Value: cfg.Cache.DB,
				Usage: "SQLite file for feed snapshots (empty disables caching)",
			},
			&cli.StringFlag{
				Name:  "cache-ttl",
				Value: cfg.Cache.TTL,
				Usage: "How long cached snapshots stay fresh (e.g., 12h, 1d, 2w)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: cfg.Fetch.Timeout,
				Usage: "Timeout for fetching each feed",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Value: cfg.Fetch.Concurrency,
				Usage: "Maximum number of feeds fetched at once",
			},
			&cli.IntFlag{
				Name:  "page-size",
				Value: cfg.PageSize,
				Usage: "Products per page",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: cfg.Log.Level,
				Usage: "Log level (debug, info, warn, error)",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Value: cfg.Log.Format,
				Usage: "Log format (console, json)",
			},
		},
		Commands: []*cli.Command{
			{
				Name:  "browse",
				Usage: "Filter, sort and page through products",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "brand", Aliases: []string{"b"}, Usage: "Only this brand"},
					&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only this category"},
					&cli.StringFlag{Name: "colour", Usage: fmt.Sprintf("Only this colour (%q for any)", model.AllColours)},
					&cli.Float64Flag{Name: "min-price", Usage: "Lowest current price (default: cheapest product)"},
					&cli.Float64Flag{Name: "max-price", Usage: "Highest current price (default: dearest product)"},
					&cli.StringFlag{Name: "search", Aliases: []string{"s"}, Usage: "Text to find in name or description"},
					&cli.StringFlag{
						Name:  "sort",
						Value: string(model.DefaultSort),
						Usage: "Sort order: newest, price-asc, price-desc, discount",
					},
					&cli.IntFlag{Name: "page", Aliases: []string{"p"}, Value: 1, Usage: "Page number"},
					&cli.StringFlag{Name: "format", Value: "json", Usage: "Output format: json or text"},
				},
				Action: browse,
			},
			{
				Name:   "facets",
				Usage:  "Show price bounds, colours, brands and categories",
				Action: facets,
			},
			{
				Name:      "show",
				Usage:     "Show product details",
				ArgsUsage: "<product-id>",
				Action:    showProduct,
			},
			{
				Name:  "export-feeds",
				Usage: "Export the feed list as OPML",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file (default: stdout)",
					},
				},
				Action: exportFeeds,
			},
			{
				Name:  "cache",
				Usage: "Inspect or clear cached feed snapshots",
				Subcommands: []*cli.Command{
					{Name: "list", Usage: "List cached snapshots", Action: listSnapshots},
					{Name: "clear", Usage: "Delete all cached snapshots", Action: clearSnapshots},
				},
			},
		},
	}
}

func outputJSON(w io.Writer, v interface{}) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func getLogger(c *cli.Context) (*zap.SugaredLogger, error) {
	return logging.New(c.String("log-level"), c.String("log-format"))
}

func getSources(c *cli.Context) ([]model.Source, error) {
	if path := c.String("feeds-opml"); path != "" {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open OPML file: %w", err)
		}
		defer file.Close()
		return opml.Parse(file)
	}

	var locations []string
	for _, loc := range c.StringSlice("feed") {
		if loc = strings.TrimSpace(loc); loc != "" {
			locations = append(locations, loc)
		}
	}
	return model.NewSources(locations), nil
}

// getCache returns nil when no cache path is configured.
func getCache(c *cli.Context) (*cache.Cache, error) {
	path := c.String("cache")
	if path == "" {
		return nil, nil
	}

	ttl, err := cache.ParseTTL(c.String("cache-ttl"))
	if err != nil {
		return nil, err
	}

	snapshots, err := cache.New(path, ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	return snapshots, nil
}

// loadStore loads every feed and builds the catalog store.
func loadStore(c *cli.Context) (*catalog.Store, error) {
	log, err := getLogger(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), ExitUsageError)
	}

	sources, err := getSources(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), ExitDataError)
	}
	if len(sources) == 0 {
		return nil, cli.Exit("No feeds configured: use --feed, --feeds-opml or CATALOG_FEEDS", ExitUsageError)
	}

	opts := []feed.LoaderOption{
		feed.WithLogger(log),
		feed.WithTimeout(c.Duration("timeout")),
		feed.WithConcurrency(c.Int("concurrency")),
	}

	snapshots, err := getCache(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), ExitUsageError)
	}
	if snapshots != nil {
		defer snapshots.Close()
		opts = append(opts, feed.WithCache(snapshots))
	}

	loader := feed.NewLoader(feed.NewFetcher(nil), opts...)
	products, err := loader.LoadSources(c.Context, sources)
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("Failed to load products: %v", err), ExitDataError)
	}

	return catalog.NewStore(products,
		catalog.WithLogger(log),
		catalog.WithPageSize(c.Int("page-size")),
	), nil
}

func browse(c *cli.Context) error {
	sortKey, err := model.ParseSortKey(c.String("sort"))
	if err != nil {
		return cli.Exit(err.Error(), ExitUsageError)
	}

	s, err := loadStore(c)
	if err != nil {
		return err
	}

	if c.IsSet("brand") {
		brand := c.String("brand")
		s.SetBrand(&brand)
	}
	if c.IsSet("category") {
		category := c.String("category")
		s.SetCategory(&category)
	}
	if c.IsSet("colour") {
		colour := c.String("colour")
		s.SetColour(&colour)
	}

	prices := s.State().Filters.PriceRange
	if c.IsSet("min-price") {
		low, err := model.PriceBound(c.Float64("min-price"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("Invalid --min-price: %v", err), ExitUsageError)
		}
		prices.Low = low
	}
	if c.IsSet("max-price") {
		high, err := model.PriceBound(c.Float64("max-price"))
		if err != nil {
			return cli.Exit(fmt.Sprintf("Invalid --max-price: %v", err), ExitUsageError)
		}
		prices.High = high
	}
	if prices.Low.GreaterThan(prices.High) {
		return cli.Exit(fmt.Sprintf("Invalid price range: %s > %s", prices.Low, prices.High), ExitUsageError)
	}
	s.SetPriceRange(prices)

	s.SetSearch(c.String("search"))
	s.SetSort(sortKey)
	s.SetPage(c.Int("page"))

	page := s.Page()

	switch c.String("format") {
	case "json":
		return outputJSON(c.App.Writer, page)
	case "text":
		return outputTable(c.App.Writer, page)
	default:
		return cli.Exit(fmt.Sprintf("Unknown format: %s", c.String("format")), ExitUsageError)
	}
}

func outputTable(w io.Writer, page catalog.PageResult) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tBRAND\tPRICE\tWAS\tCOLOUR\tADDED")
	for _, p := range page.Products {
		added := "-"
		if p.HasDate() {
			added = humanize.Time(p.DateAdded)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.ID, p.Name, p.Brand, p.CurrentPrice.Display, p.OriginalPrice.Display, strings.TrimSpace(p.Colour), added)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintf(w, "\n%s products found, page %d of %d\n",
		humanize.Comma(int64(page.Total)), page.Page, page.TotalPages)
	return err
}

func facets(c *cli.Context) error {
	s, err := loadStore(c)
	if err != nil {
		return err
	}

	f := s.Facets()
	return outputJSON(c.App.Writer, map[string]interface{}{
		"products":   s.Len(),
		"min_price":  f.MinPrice,
		"max_price":  f.MaxPrice,
		"colours":    f.Colours,
		"brands":     f.Brands,
		"categories": f.Categories,
		"sort_keys":  model.SortKeys,
	})
}

func showProduct(c *cli.Context) error {
	if c.NArg() < 1 {
		return cli.Exit("Usage: catalog-cli show <product-id>", ExitUsageError)
	}

	s, err := loadStore(c)
	if err != nil {
		return err
	}

	id := c.Args().Get(0)
	p, ok := s.Find(id)
	if !ok {
		return cli.Exit(fmt.Sprintf("Product not found: %s", id), ExitDataError)
	}

	return outputJSON(c.App.Writer, p)
}

func exportFeeds(c *cli.Context) error {
	sources, err := getSources(c)
	if err != nil {
		return cli.Exit(err.Error(), ExitDataError)
	}

	outputPath := c.String("output")
	var writer io.Writer

	if outputPath == "" {
		writer = c.App.Writer
	} else {
		file, err := os.Create(outputPath)
		if err != nil {
			return cli.Exit(fmt.Sprintf("Failed to create output file: %v", err), ExitDataError)
		}
		defer file.Close()
		writer = file
	}

	if err := opml.Generate(writer, sources); err != nil {
		return cli.Exit(fmt.Sprintf("Failed to generate OPML: %v", err), ExitDataError)
	}

	// If outputting to file, also return JSON status
	if outputPath != "" {
		return outputJSON(c.App.Writer, map[string]interface{}{
			"success": true,
			"file":    outputPath,
			"count":   len(sources),
		})
	}

	return nil
}

func requireCache(c *cli.Context) (*cache.Cache, error) {
	snapshots, err := getCache(c)
	if err != nil {
		return nil, cli.Exit(err.Error(), ExitUsageError)
	}
	if snapshots == nil {
		return nil, cli.Exit("No cache configured: use --cache or CATALOG_CACHE_DB", ExitUsageError)
	}
	return snapshots, nil
}

func listSnapshots(c *cli.Context) error {
	snapshots, err := requireCache(c)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	list, err := snapshots.List()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to list snapshots: %v", err), ExitDataError)
	}

	return outputJSON(c.App.Writer, map[string]interface{}{
		"count":     len(list),
		"snapshots": list,
	})
}

func clearSnapshots(c *cli.Context) error {
	snapshots, err := requireCache(c)
	if err != nil {
		return err
	}
	defer snapshots.Close()

	removed, err := snapshots.Clear()
	if err != nil {
		return cli.Exit(fmt.Sprintf("Failed to clear snapshots: %v", err), ExitDataError)
	}

	return outputJSON(c.App.Writer, map[string]interface{}{
		"success": true,
		"removed": removed,
	})
}
