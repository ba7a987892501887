package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spherical-ai/spherical/libs/spec-compare/internal/app"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/comparison"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/ingest"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/specs"
	"github.com/spherical-ai/spherical/libs/spec-compare/internal/units"
)

type extractedDocument struct {
	ModelNumber string          `json:"model_number"`
	SourceHash  string          `json:"source_hash,omitempty"`
	Stored      bool            `json:"stored"`
	Document    *specs.Document `json:"document"`
}

type failedSource struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

type extractOutput struct {
	Documents []extractedDocument `json:"documents"`
	Failed    []failedSource      `json:"failed_sources"`
}

// compareOutput pairs a comparison with the sources left out of it.
type compareOutput struct {
	Comparison *comparison.Response `json:"comparison"`
	Failed     []failedSource       `json:"failed_sources"`
}

func (c *cli) newExtractCmd() *cobra.Command {
	var store bool

	cmd := &cobra.Command{
		Use:   "extract <file|model>...",
		Short: "Extract specification documents from datasheets",
		Long: `Extract reads each datasheet, builds its specification document and
prints a summary. Arguments are file paths or model numbers looked up in the
configured source directory.`,
		Example: `  spec-compare-cli extract HSR-520R.pdf HSR-540F.pdf
  spec-compare-cli extract 520R 540F --store`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			svc, result, err := c.runPipeline(ctx, args)
			if err != nil {
				return err
			}
			defer svc.Close()

			out := extractOutput{Documents: []extractedDocument{}, Failed: failures(result)}
			for _, key := range result.Order {
				out.Documents = append(out.Documents, extractedDocument{
					ModelNumber: key,
					SourceHash:  result.SourceHashes[key],
					Document:    result.Documents[key],
				})
			}

			if store && len(out.Documents) > 0 {
				if err := c.storeDocuments(ctx, out.Documents); err != nil {
					return err
				}
			}

			if c.outputJSON {
				return writeJSON(cmd.OutOrStdout(), out)
			}

			c.ui.Section("Extraction")
			for _, d := range out.Documents {
				msg := "%s: %d specifications in %d sections"
				if d.Stored {
					msg += " (stored)"
				}
				c.ui.Success(msg, d.ModelNumber, d.Document.SpecificationCount(), len(d.Document.Sections()))
			}
			if len(out.Documents) == 0 {
				return fmt.Errorf("no documents extracted from %d sources", len(args))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&store, "store", false, "save extracted documents to the configured database")
	return cmd
}

func (c *cli) storeDocuments(ctx context.Context, docs []extractedDocument) error {
	repo, db, err := app.OpenRepository(ctx, c.cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	spin := c.ui.Spinner(fmt.Sprintf("Storing %d documents...", len(docs)))
	spin.Start()
	defer spin.Stop()

	for i := range docs {
		d := &docs[i]
		if _, err := repo.Save(ctx, d.ModelNumber, d.SourceHash, d.Document); err != nil {
			return fmt.Errorf("store %s: %w", d.ModelNumber, err)
		}
		d.Stored = true
	}
	return nil
}

func (c *cli) newCompareCmd() *cobra.Command {
	var stored bool

	cmd := &cobra.Command{
		Use:   "compare <file|model> <file|model>...",
		Short: "Compare the specifications of two or more models",
		Long: `Compare builds a document for every argument and reports each
specification whose value differs between the models. With --stored the
arguments are model numbers loaded from the configured database.`,
		Example: `  spec-compare-cli compare HSR-520R.pdf HSR-540F.pdf
  spec-compare-cli compare 520R 540F --stored --json`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			var (
				docs   map[string]*specs.Document
				order  []string
				failed []failedSource
				svc    *app.Services
			)
			if stored {
				var err error
				if svc, err = app.NewServices(c.cfg, c.logger); err != nil {
					return err
				}
				defer svc.Close()
				if docs, failed, err = c.loadStored(ctx, args); err != nil {
					return err
				}
				for _, m := range args {
					if _, ok := docs[m]; ok {
						order = append(order, m)
					}
				}
			} else {
				var (
					result *ingest.Result
					err    error
				)
				if svc, result, err = c.runPipeline(ctx, args); err != nil {
					return err
				}
				defer svc.Close()
				docs, order, failed = result.Documents, result.Order, failures(result)
			}

			resp, err := svc.Comparator.Compare(docs, order)
			if err != nil {
				return err
			}
			for _, m := range resp.SkippedModels {
				c.ui.Warning("%s skipped: no valid document", m)
				failed = append(failed, failedSource{Source: m, Error: "no valid document"})
			}

			if c.outputJSON {
				return writeJSON(cmd.OutOrStdout(), compareOutput{Comparison: resp, Failed: failed})
			}
			renderComparison(c.ui, resp)
			return nil
		},
	}

	cmd.Flags().BoolVar(&stored, "stored", false, "load documents from the configured database")
	return cmd
}

// loadStored reads models from the database. Models that are not stored are
// reported as failed sources.
func (c *cli) loadStored(ctx context.Context, models []string) (map[string]*specs.Document, []failedSource, error) {
	repo, db, err := app.OpenRepository(ctx, c.cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	spin := c.ui.Spinner("Loading stored documents...")
	spin.Start()
	docs, missing, err := repo.GetMany(ctx, models)
	spin.Stop()
	if err != nil {
		return nil, nil, fmt.Errorf("load documents: %w", err)
	}
	failed := make([]failedSource, 0, len(missing))
	for _, m := range missing {
		c.ui.Warning("%s: not stored", m)
		failed = append(failed, failedSource{Source: m, Error: "not stored"})
	}
	return docs, failed, nil
}

// runPipeline builds documents for refs, reporting progress and per-source
// failures. The caller closes the returned services.
func (c *cli) runPipeline(ctx context.Context, refs []string) (*app.Services, *ingest.Result, error) {
	bar := c.ui.ProgressBar(len(refs), "Extracting")
	svc, err := app.NewServices(c.cfg, c.logger, ingest.WithProgress(func(done, total int) {
		bar.Increment()
	}))
	if err != nil {
		return nil, nil, err
	}

	result, err := svc.Pipeline.Run(ctx, refs)
	bar.Finish()
	if err != nil {
		svc.Close()
		return nil, nil, err
	}
	for _, f := range result.Failed {
		c.ui.Error("%s: %v", f.Ref, f.Err)
	}
	return svc, result, nil
}

func failures(result *ingest.Result) []failedSource {
	out := make([]failedSource, 0, len(result.Failed))
	for _, f := range result.Failed {
		out = append(out, failedSource{Source: f.Ref, Error: f.Err.Error()})
	}
	return out
}

// renderComparison prints the differences table, one column per model with
// the extreme model's cell highlighted, followed by the feature matrix.
func renderComparison(ui *UI, resp *comparison.Response) {
	ui.Section("Comparison " + resp.ComparisonID)

	if len(resp.Differences) == 0 {
		ui.Success("No differences between %d models", len(resp.ModelNumbers))
	} else {
		headers := append([]string{"Section", "Category", "Specification"}, resp.ModelNumbers...)
		rows := make([][]string, 0, len(resp.Differences))
		marks := make([][]bool, 0, len(resp.Differences))
		for _, d := range resp.Differences {
			row := []string{d.Category, d.Subcategory, d.Specification}
			mark := make([]bool, len(headers))
			for i, m := range resp.ModelNumbers {
				v, ok := d.Values[m]
				if !ok {
					row = append(row, "-")
					continue
				}
				if d.Unit != nil {
					v = units.FormatDisplay(v, *d.Unit)
				}
				row = append(row, v)
				mark[3+i] = m == d.Model
			}
			rows = append(rows, row)
			marks = append(marks, mark)
		}
		ui.Table(headers, rows, marks)
		ui.Info("%d differences across %d models", resp.DifferencesCount, len(resp.ModelNumbers))
	}

	fa, ok := resp.Section(specs.FeaturesAndAdvantagesName)
	if !ok {
		return
	}
	ui.Section(fa.Name)
	headers := append([]string{"Category", "Item"}, resp.ModelNumbers...)
	var rows [][]string
	for _, group := range fa.Categories {
		for _, f := range group.Features {
			row := []string{group.Name, f.Text}
			for _, m := range resp.ModelNumbers {
				if f.Models[m] {
					row = append(row, "✓")
				} else {
					row = append(row, "")
				}
			}
			rows = append(rows, row)
		}
	}
	ui.Table(headers, rows, nil)
}

type unitResult struct {
	Raw      string `json:"raw"`
	Standard string `json:"standard"`
	Type     string `json:"type,omitempty"`
}

func (c *cli) newUnitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "units <unit>...",
		Short:   "Show how raw unit spellings are standardized",
		Example: `  spec-compare-cli units Ohms "Volts - maximum" degC`,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var misses []string
			n := units.NewNormalizer(units.WithMissHook(func(raw string) {
				misses = append(misses, raw)
			}))

			results := make([]unitResult, 0, len(args))
			for _, raw := range args {
				r := unitResult{Raw: raw, Standard: n.Standardize(raw)}
				if s, ok := n.Lookup(baseUnit(r.Standard)); ok {
					r.Type = string(s.Type)
				}
				results = append(results, r)
			}

			if c.outputJSON {
				return writeJSON(cmd.OutOrStdout(), results)
			}

			rows := make([][]string, len(results))
			for i, r := range results {
				rows[i] = []string{r.Raw, r.Standard, r.Type}
			}
			c.ui.Table([]string{"Raw", "Standard", "Type"}, rows, nil)
			for _, m := range misses {
				c.ui.Warning("%q is not a known unit", m)
			}
			return nil
		},
	}
}

func baseUnit(standard string) string {
	base, _, _ := strings.Cut(standard, " - ")
	return base
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
