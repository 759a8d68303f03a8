package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Sternrassler/storefront-client/internal/config"
	"github.com/Sternrassler/storefront-client/pkg/catalog"
	"github.com/Sternrassler/storefront-client/pkg/fetch"
)

func newProductsCmd(a *app) *cobra.Command {
	var pages int
	var all bool

	cmd := &cobra.Command{
		Use:   "products <category-id>",
		Short: "List the products of a category page by page",
		Args:  cobra.ExactArgs(1),
	}
	cmd.Flags().IntVar(&pages, "pages", 1, "Number of pages to load")
	cmd.Flags().BoolVar(&all, "all", false, "Load every page")

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		categoryID, err := parseID(args[0])
		if err != nil {
			return err
		}
		api, err := a.client(cmd.Context())
		if err != nil {
			return err
		}

		fcfg := fetch.Config[int64, catalog.Product]{
			PageSize: a.cfg.Fetch.PageSize,
			Timeout:  a.cfg.Fetch.Timeout,
		}
		if a.cfg.Fetch.Dedup {
			fcfg.IDFunc = catalog.ProductID
		}
		listing := catalog.NewProductListing(api, fcfg)
		defer listing.Close()

		listing.SetKey(categoryID)
		state, err := listing.WaitFor(cmd.Context(), fetch.Settled[int64, catalog.Product])
		for loaded := 1; err == nil && state.Status == fetch.StatusLoaded && (all || loaded < pages); loaded++ {
			if !listing.LoadMore() {
				break
			}
			state, err = listing.WaitFor(cmd.Context(), fetch.Settled[int64, catalog.Product])
		}
		if err != nil {
			return err
		}

		if len(state.Items) > 0 {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tPRICE")
			for _, p := range state.Items {
				fmt.Fprintf(w, "%d\t%s\t%.2f\n", p.ID, p.Name, p.Price)
			}
			w.Flush()
		}
		fmt.Fprintf(cmd.OutOrStdout(), "showing %d of %d (page %d, more: %t)\n",
			len(state.Items), state.TotalCount, state.CurrentPage, state.HasMore)

		if state.Status == fetch.StatusError {
			return state.Err
		}
		return nil
	})

	return cmd
}

func newSearchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search categories and products",
		Long: `Search categories and products. With a query argument one search is run.
Without one, every line read from stdin is treated as the current input of a
search box: lines arriving faster than the debounce interval are coalesced
and only the settled query is sent.`,
	}

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		api, err := a.client(cmd.Context())
		if err != nil {
			return err
		}

		printer := newSearchPrinter(cmd.OutOrStdout())
		search := catalog.NewLiveSearch(api, catalog.LiveSearchConfig{
			Delay: a.cfg.Fetch.Debounce,
			Fetch: fetch.Config[string, catalog.SearchHit]{
				Timeout:  a.cfg.Fetch.Timeout,
				OnChange: printer.print,
			},
		})
		defer search.Close()

		if len(args) > 0 {
			search.SetQuery(strings.Join(args, " "))
		} else {
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				search.SetQuery(scanner.Text())
			}
			if err := scanner.Err(); err != nil {
				return err
			}
		}

		query := search.Query()
		if query == "" {
			return nil
		}
		last, err := printer.wait(cmd.Context(), func(s fetch.State[string, catalog.SearchHit]) bool {
			return s.HasKey && s.Key == query && !s.Status.InFlight()
		})
		if err != nil {
			return err
		}
		if last.Status == fetch.StatusError {
			return last.Err
		}
		return nil
	})

	return cmd
}

// searchPrinter writes search states as they are delivered and lets the
// command wait until a given state has been printed.
type searchPrinter struct {
	mu      sync.Mutex
	w       io.Writer
	last    fetch.State[string, catalog.SearchHit]
	changed chan struct{}
}

func newSearchPrinter(w io.Writer) *searchPrinter {
	return &searchPrinter{w: w, changed: make(chan struct{})}
}

func (p *searchPrinter) print(s fetch.State[string, catalog.SearchHit]) {
	p.mu.Lock()
	defer p.mu.Unlock()
	printSearch(p.w, s)
	p.last = s
	close(p.changed)
	p.changed = make(chan struct{})
}

func (p *searchPrinter) wait(ctx context.Context, pred func(fetch.State[string, catalog.SearchHit]) bool) (fetch.State[string, catalog.SearchHit], error) {
	for {
		p.mu.Lock()
		last, changed := p.last, p.changed
		p.mu.Unlock()

		if pred(last) {
			return last, nil
		}
		select {
		case <-changed:
		case <-ctx.Done():
			return last, ctx.Err()
		}
	}
}

func printSearch(w io.Writer, s fetch.State[string, catalog.SearchHit]) {
	switch s.Status {
	case fetch.StatusIdle:
		fmt.Fprintln(w, "(cleared)")
	case fetch.StatusLoading:
		fmt.Fprintf(w, "searching %q...\n", s.Key)
	case fetch.StatusError:
		fmt.Fprintf(w, "search %q failed: %s\n", s.Key, s.Err.Message)
	case fetch.StatusLoaded:
		fmt.Fprintf(w, "%d results for %q\n", len(s.Items), s.Key)
		for _, hit := range s.Items {
			fmt.Fprintf(w, "  %-8s %s\n", hit.Kind, hit.Name())
		}
	}
}

func newMediaCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "media <category-id>",
		Short: "List the media of a category",
		Args:  cobra.ExactArgs(1),
	}

	cmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		categoryID, err := parseID(args[0])
		if err != nil {
			return err
		}
		api, err := a.client(cmd.Context())
		if err != nil {
			return err
		}

		media := catalog.NewMediaListing(api, fetch.Config[int64, catalog.MediaItem]{
			Timeout: a.cfg.Fetch.Timeout,
		})
		defer media.Close()

		media.SetKey(categoryID)
		state, err := media.WaitFor(cmd.Context(), fetch.Settled[int64, catalog.MediaItem])
		if err != nil {
			return err
		}
		if state.Status == fetch.StatusError {
			return state.Err
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tTYPE\tTITLE\tURL")
		for _, m := range state.Items {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", m.ID, m.Type, m.Title, m.URL)
		}
		return w.Flush()
	})

	return cmd
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or create the configuration file",
	}

	var path string
	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default config file",
		Args:  cobra.NoArgs,
	}
	initCmd.Flags().StringVar(&path, "path", config.ConfigFilePath(), "Destination file")
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	initCmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		if !force && fileExists(path) {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := config.Save(config.Default(), path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
		return nil
	})

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
	}
	showCmd.RunE = a.run(func(cmd *cobra.Command, args []string) error {
		return yaml.NewEncoder(cmd.OutOrStdout()).Encode(a.cfg)
	})

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid category id %q", s)
	}
	return id, nil
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
