package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/idnremote/idnremote-go/internal/domain/model"
	"github.com/idnremote/idnremote-go/internal/util"
)

type listOptions struct {
	Query   string
	RawJSON bool
}

type jobOptions struct {
	ID      string
	RawJSON bool
}

func parseListFlags(name string, args []string, withQuery bool) (listOptions, error) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts listOptions
	if withQuery {
		fs.StringVar(&opts.Query, "query", "", "Free-text filter passed to the backend")
	}
	fs.BoolVar(&opts.RawJSON, "json", false, "Print raw JSON instead of a table")

	if err := fs.Parse(args); err != nil {
		return listOptions{}, err
	}
	if fs.NArg() > 0 {
		return listOptions{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}
	opts.Query = strings.TrimSpace(opts.Query)
	return opts, nil
}

func parseJobFlags(args []string) (jobOptions, error) {
	fs := flag.NewFlagSet("job", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var opts jobOptions
	fs.BoolVar(&opts.RawJSON, "json", false, "Print raw JSON")

	if err := fs.Parse(args); err != nil {
		return jobOptions{}, err
	}
	if fs.NArg() != 1 {
		return jobOptions{}, errors.New("usage: job [--json] <id>")
	}
	opts.ID = strings.TrimSpace(fs.Arg(0))
	if opts.ID == "" {
		return jobOptions{}, errors.New("job id must not be empty")
	}
	return opts, nil
}

func runJobs(cmdCtx *commandContext, args []string) error {
	opts, err := parseListFlags("jobs", args, true)
	if err != nil {
		return err
	}
	conns, err := openListings(cmdCtx)
	if err != nil {
		return err
	}
	defer closeConnections(cmdCtx, conns)

	jobs, err := conns.backend.ListJobs(cmdCtx.Ctx, model.JobQuery{Query: opts.Query})
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	if opts.RawJSON {
		return printJSON(cmdCtx.Out, jobs)
	}
	return printJobs(cmdCtx.Out, jobs, time.Now())
}

func runJob(cmdCtx *commandContext, args []string) error {
	opts, err := parseJobFlags(args)
	if err != nil {
		return err
	}
	conns, err := openListings(cmdCtx)
	if err != nil {
		return err
	}
	defer closeConnections(cmdCtx, conns)

	job, err := conns.backend.GetJob(cmdCtx.Ctx, opts.ID)
	if err != nil {
		return fmt.Errorf("get job %s: %w", opts.ID, err)
	}
	if opts.RawJSON {
		return printJSON(cmdCtx.Out, job)
	}
	return printJobDetail(cmdCtx.Out, job, time.Now())
}

func runTags(cmdCtx *commandContext, args []string) error {
	opts, err := parseListFlags("tags", args, false)
	if err != nil {
		return err
	}
	conns, err := openListings(cmdCtx)
	if err != nil {
		return err
	}
	defer closeConnections(cmdCtx, conns)

	tags, err := conns.backend.ListTags(cmdCtx.Ctx)
	if err != nil {
		return fmt.Errorf("list tags: %w", err)
	}
	if opts.RawJSON {
		return printJSON(cmdCtx.Out, tags)
	}
	return printTags(cmdCtx.Out, tags)
}

// runHome mirrors what the home page loads: the filtered listing and the tag list,
// fetched concurrently.
func runHome(cmdCtx *commandContext, args []string) error {
	opts, err := parseListFlags("home", args, true)
	if err != nil {
		return err
	}
	conns, err := openListings(cmdCtx)
	if err != nil {
		return err
	}
	defer closeConnections(cmdCtx, conns)

	var (
		jobs []model.Job
		tags []model.Tag
	)
	g, ctx := errgroup.WithContext(cmdCtx.Ctx)
	g.Go(func() error {
		var err error
		jobs, err = conns.backend.ListJobs(ctx, model.JobQuery{Query: opts.Query})
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = conns.backend.ListTags(ctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("load home: %w", err)
	}

	if opts.RawJSON {
		return printJSON(cmdCtx.Out, map[string]any{"query": opts.Query, "jobs": jobs, "tags": tags})
	}
	if err := printJobs(cmdCtx.Out, jobs, time.Now()); err != nil {
		return err
	}
	if err := writeln(cmdCtx.Out); err != nil {
		return err
	}
	return printTags(cmdCtx.Out, tags)
}

func printJobs(w io.Writer, jobs []model.Job, now time.Time) error {
	if len(jobs) == 0 {
		return writeln(w, "No jobs found.")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ID\tTITLE\tCOMPANY\tLOCATION\tPOSTED\tFEATURED\n"); err != nil {
		return err
	}
	for _, j := range jobs {
		featured := ""
		if j.IsFeatured {
			featured = "yes"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			j.ID, j.JobTitle, j.CompanyName, j.CompanyLocation, posted(j, now), featured); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func printJobDetail(w io.Writer, j *model.Job, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", j.ID},
		{"Title", j.JobTitle},
		{"Company", j.CompanyName},
		{"Location", j.CompanyLocation},
		{"Posted", posted(*j, now)},
		{"Tags", strings.Join(j.RelevantTags, ", ")},
		{"Apply", j.ApplyURL},
	}
	for _, r := range rows {
		if err := writef(tw, "%s:\t%s\n", r[0], r[1]); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if j.ShortDescription == "" {
		return nil
	}
	return writef(w, "\n%s\n", j.ShortDescription)
}

func printTags(w io.Writer, tags []model.Tag) error {
	if len(tags) == 0 {
		return writeln(w, "No tags found.")
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "ID\tNAME\n"); err != nil {
		return err
	}
	for _, t := range tags {
		if err := writef(tw, "%s\t%s\n", t.ID, t.Name); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func posted(j model.Job, now time.Time) string {
	ts := j.CreatedAt
	if ts == 0 {
		ts = j.UpdatedAt
	}
	if ts == 0 {
		return "-"
	}
	return util.HumanizeTime(ts, now)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
