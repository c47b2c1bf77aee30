package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/conneroisu/sitekit/internal/config"
	"github.com/conneroisu/sitekit/internal/dom"
	siteerrors "github.com/conneroisu/sitekit/internal/errors"
	"github.com/conneroisu/sitekit/internal/search"
)

var searchCmd = &cobra.Command{
	Use:   "search <query> [page]",
	Short: "Run a section search over a page",
	Long: `Search a page the way its search box would and print the status line.

The page defaults to index.html in the source directory. The search box,
status and content elements are found by the ids in the search section of
the configuration.

Examples:
  sitekit search bolt                    # Search ./index.html
  sitekit search "key value" docs.html   # Search another page
  sitekit search bolt --html             # Also print the filtered content`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runSearch,
}

func init() {
	rootCmd.AddCommand(searchCmd)

	searchCmd.Flags().Bool("html", false, "Print the content container after the search")
}

func runSearch(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := newLogger(cmd)
	if err != nil {
		return err
	}

	page := filepath.Join(cfg.Build.SourceDir, "index.html")
	if len(args) == 2 {
		page = args[1]
	}

	doc, err := parsePage(page)
	if err != nil {
		return err
	}

	p := dom.Bind(doc, dom.IDsFromConfig(cfg.Search), search.WithLogger(logger))
	if !p.Widget.Enabled() {
		return siteerrors.NewValidationError(siteerrors.CodeMissingElement,
			fmt.Sprintf("page has no search widget (need #%s and #%s)", cfg.Search.InputID, cfg.Search.ContainerID)).WithPath(page)
	}
	defer p.Widget.Close()

	p.Input.SetValue(args[0])
	res := p.Widget.Search(args[0])

	out := cmd.OutOrStdout()
	if res.Outcome != search.OutcomeReset {
		fmt.Fprintln(out, res.Status)
	}
	if html, _ := cmd.Flags().GetBool("html"); html {
		fmt.Fprintln(out, p.ContentHTML())
	}
	return nil
}

func parsePage(path string) (*dom.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, siteerrors.WrapIO(err, siteerrors.CodeReadFailed, "failed to open page", path)
	}
	defer f.Close()

	doc, err := dom.Parse(f)
	if err != nil {
		return nil, siteerrors.Wrap(err, siteerrors.ErrorTypeValidation, siteerrors.CodeParseFailed, "failed to parse page").WithPath(path)
	}
	return doc, nil
}
