package main

import (
	"context"
	"errors"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/scholarnav/internal/document"
	"github.com/nao1215/scholarnav/internal/model"
	"github.com/nao1215/scholarnav/internal/navigator"
	"github.com/nao1215/scholarnav/internal/report"
)

// NewAuthorsCmd creates the authors command.
func NewAuthorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "authors [name...]",
		Short: "Search author profiles by name",
		Long: `Authors lists the Scholar profiles matching a name, following the
listing page by page.

Examples:
  # First 20 profiles matching a name
  scholarnav authors -n 20 "marie curie"

  # Authors affiliated with an organization ID (see 'scholarnav org')
  scholarnav authors --org 13784427342582529234`,
		RunE: runAuthorsCmd,
	}
	cmd.Flags().String("org", "", "List the authors of this organization ID instead of searching by name")
	addLimitFlag(cmd)
	addReportFlags(cmd)
	return cmd
}

func runAuthorsCmd(cmd *cobra.Command, args []string) error {
	org, err := cmd.Flags().GetString("org")
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")
	path := navigator.AuthorSearchPath(query)
	switch {
	case org != "":
		path, query = navigator.OrganizationAuthorsPath(org), "org:"+org
	case query == "":
		return errors.New("no author name provided (specify a name or --org)")
	}

	return runQuery(cmd, report.KindAuthors, query, func(ctx context.Context, a *app, result *report.Result) error {
		authors, err := collect(ctx, a, a.nav.SearchAuthors(path), a.cfg.MaxRecords)
		result.Authors = authors
		return err
	})
}

// NewAuthorCmd creates the author command.
func NewAuthorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "author <scholar-id>",
		Short: "Fill an author profile by Scholar ID",
		Long: `Author fetches the profile of a Scholar ID and fills the requested
sections: basics, indices, counts, coauthors and publications.

Examples:
  # Every section, publications by citation count
  scholarnav author EmD_lTEAAAAJ

  # Only the citation indices
  scholarnav author --sections indices EmD_lTEAAAAJ

  # The 10 most recent publications
  scholarnav author --sort-by year -n 10 EmD_lTEAAAAJ`,
		Args: cobra.ExactArgs(1),
		RunE: runAuthorCmd,
	}
	cmd.Flags().StringSlice("sections", nil,
		"Sections to fill: basics, indices, counts, coauthors, publications (default all)")
	cmd.Flags().String("sort-by", navigator.SortByCitedBy, "Publication order: citedby or year")
	cmd.Flags().IntP("publication-limit", "n", 0, "Maximum number of publications (0 means all)")
	addReportFlags(cmd)
	return cmd
}

func runAuthorCmd(cmd *cobra.Command, args []string) error {
	id := args[0]
	return runQuery(cmd, report.KindAuthor, id, func(ctx context.Context, a *app, result *report.Result) error {
		opts := navigator.AuthorOptions{
			Sections:         a.cfg.Sections,
			SortBy:           a.cfg.SortBy,
			PublicationLimit: a.cfg.PublicationLimit,
		}
		author, err := attempt(ctx, a, func() (model.Author, error) {
			return a.nav.SearchAuthorID(ctx, id, opts)
		})
		if author.ScholarID != "" && len(author.Filled) > 0 {
			result.Authors = []model.Author{author}
		}
		return err
	})
}

// NewPublicationsCmd creates the publications command.
func NewPublicationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publications <query...>",
		Short: "Search publications",
		Long: `Publications lists the search results for a query, page by page.

With --fill every result is completed from its BibTeX export, which costs
two more requests per publication.

Examples:
  scholarnav publications -n 30 "attention is all you need"
  scholarnav publications --fill -n 5 --json "protein folding"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPublicationsCmd,
	}
	cmd.Flags().Bool("fill", false, "Complete every result from its detail page")
	addLimitFlag(cmd)
	addReportFlags(cmd)
	return cmd
}

func runPublicationsCmd(cmd *cobra.Command, args []string) error {
	fill, err := cmd.Flags().GetBool("fill")
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")
	return runQuery(cmd, report.KindPublications, query, func(ctx context.Context, a *app, result *report.Result) error {
		pubs, err := collect(ctx, a, a.nav.SearchPublications(navigator.PublicationSearchPath(query)), a.cfg.MaxRecords)
		result.Publications = pubs
		if err != nil || !fill {
			return err
		}
		return fillAll(ctx, a, result.Publications)
	})
}

// fillAll fills pubs in place, stopping at the first failure.
func fillAll(ctx context.Context, a *app, pubs []model.Publication) error {
	for i := range pubs {
		filled, err := attempt(ctx, a, func() (model.Publication, error) {
			return a.nav.FillPublication(ctx, pubs[i])
		})
		if err != nil {
			return err
		}
		pubs[i] = filled
	}
	return nil
}

// NewPublicationCmd creates the publication command.
func NewPublicationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "publication <query...>",
		Short: "Look up the first publication matching a query",
		Long: `Publication returns the first search result for a query, optionally
completed from its BibTeX export.

Examples:
  scholarnav publication "deep residual learning"
  scholarnav publication --fill --json "deep residual learning"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runPublicationCmd,
	}
	cmd.Flags().Bool("fill", false, "Complete the result from its detail page")
	addReportFlags(cmd)
	return cmd
}

func runPublicationCmd(cmd *cobra.Command, args []string) error {
	fill, err := cmd.Flags().GetBool("fill")
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")
	return runQuery(cmd, report.KindPublication, query, func(ctx context.Context, a *app, result *report.Result) error {
		pub, err := attempt(ctx, a, func() (model.Publication, error) {
			return a.nav.SearchPublication(ctx, navigator.PublicationSearchPath(query), fill)
		})
		if errors.Is(err, document.ErrEmptyResultSet) {
			return nil
		}
		if pub.Title != "" {
			result.Publications = []model.Publication{pub}
		}
		return err
	})
}

// NewCitedByCmd creates the cited-by command.
func NewCitedByCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cited-by <query...>",
		Short: "List the publications citing the first match of a query",
		Long: `Cited-by looks up the first publication matching a query and follows
its "Cited by" link, listing the citing publications page by page.

Examples:
  scholarnav cited-by -n 50 "deep residual learning"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCitedByCmd,
	}
	addLimitFlag(cmd)
	addReportFlags(cmd)
	return cmd
}

func runCitedByCmd(cmd *cobra.Command, args []string) error {
	query := strings.Join(args, " ")
	return runQuery(cmd, report.KindPublications, query, func(ctx context.Context, a *app, result *report.Result) error {
		pub, err := attempt(ctx, a, func() (model.Publication, error) {
			return a.nav.SearchPublication(ctx, navigator.PublicationSearchPath(query), false)
		})
		if errors.Is(err, document.ErrEmptyResultSet) {
			return nil
		}
		if err != nil {
			return err
		}
		p, err := a.nav.CitedBy(pub)
		if errors.Is(err, navigator.ErrNoCitations) {
			a.logger.Info("publication has no citations", "title", pub.Title)
			return nil
		}
		if err != nil {
			return err
		}
		citing, err := collect(ctx, a, p, a.cfg.MaxRecords)
		result.Publications = citing
		return err
	})
}

// NewOrgCmd creates the org command.
func NewOrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org <name...>",
		Short: "Search organizations by name",
		Long: `Org lists the institutions Scholar suggests for a name, with the IDs
accepted by 'scholarnav authors --org'.

With --from-author, a search that suggests no institution falls back to
the organization of the first matching author.

Examples:
  scholarnav org "university of cambridge"
  scholarnav org --from-author "some lab"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runOrgCmd,
	}
	cmd.Flags().Bool("from-author", false, "Fall back to the organization of the first matching author")
	addReportFlags(cmd)
	return cmd
}

func runOrgCmd(cmd *cobra.Command, args []string) error {
	fromAuthor, err := cmd.Flags().GetBool("from-author")
	if err != nil {
		return err
	}
	name := strings.Join(args, " ")
	return runQuery(cmd, report.KindOrganizations, name, func(ctx context.Context, a *app, result *report.Result) error {
		orgs, err := attempt(ctx, a, func() ([]model.Organization, error) {
			return a.nav.SearchOrganization(ctx, navigator.OrganizationSearchPath(name), fromAuthor)
		})
		result.Organizations = orgs
		return err
	})
}
