// cmd/tools/match-preview/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"investor-match-workers/internal/matching"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "match-preview",
		Short:        "Score and rank investor candidates offline from YAML or JSON files",
		SilenceUsage: true,
	}
	root.AddCommand(rankCmd())
	root.AddCommand(stagesCmd())
	return root
}

type rankOptions struct {
	seekerPath     string
	candidatesPath string
	limit          int
	output         string
	all            bool
}

func rankCmd() *cobra.Command {
	var opts rankOptions

	cmd := &cobra.Command{
		Use:     "rank",
		Short:   "Rank candidates for a funding seeker",
		Example: "  match-preview rank --seeker seeker.yaml --candidates investors.yaml --limit 5",
		RunE: func(cmd *cobra.Command, _ []string) error {
			switch opts.output {
			case "table", "json":
			default:
				return fmt.Errorf("unknown output format %q, want table or json", opts.output)
			}

			var seeker matching.FundingSeeker
			if err := readDocument(opts.seekerPath, &seeker); err != nil {
				return fmt.Errorf("failed to read seeker: %w", err)
			}
			var candidates []matching.Candidate
			if err := readDocument(opts.candidatesPath, &candidates); err != nil {
				return fmt.Errorf("failed to read candidates: %w", err)
			}

			ranked := matching.RankCandidates(seeker, candidates)
			if opts.limit > 0 && len(ranked) > opts.limit {
				ranked = ranked[:opts.limit]
			}

			out := cmd.OutOrStdout()
			if opts.output == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(ranked)
			}
			if err := printRanking(out, ranked); err != nil {
				return err
			}
			if opts.all {
				return printIneligible(out, seeker, candidates)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.seekerPath, "seeker", "", "seeker profile file (.yaml, .yml or .json)")
	f.StringVar(&opts.candidatesPath, "candidates", "", "candidate list file (.yaml, .yml or .json)")
	f.IntVar(&opts.limit, "limit", 0, "show at most N matches, 0 for all")
	f.StringVarP(&opts.output, "output", "o", "table", "table or json")
	f.BoolVar(&opts.all, "all", false, "also list candidates that failed the eligibility filter")
	_ = cmd.MarkFlagRequired("seeker")
	_ = cmd.MarkFlagRequired("candidates")
	return cmd
}

func stagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the funding stages the scorer recognises",
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "STAGE\tLABEL")
			for _, st := range matching.Stages() {
				fmt.Fprintf(w, "%s\t%s\n", st, st.Label())
			}
			return w.Flush()
		},
	}
}

// readDocument decodes JSON files by extension and everything else as YAML.
func readDocument(path string, into interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if strings.HasSuffix(strings.ToLower(path), ".json") {
		return json.Unmarshal(data, into)
	}
	return yaml.Unmarshal(data, into)
}

func printRanking(out io.Writer, ranked []matching.ScoredCandidate) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tID\tNAME\tSCORE\tINDUSTRY\tSTAGE\tRANGE\tLEAD\tPORTFOLIO")
	for i, sc := range ranked {
		b := sc.Breakdown
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			i+1, sc.Candidate.ID, sc.Candidate.Name, sc.MatchScore,
			b.IndustryOverlap, b.StageMatch, b.RangeFit, b.LeadPreference, b.PortfolioRelevant)
	}
	if len(ranked) == 0 {
		fmt.Fprintln(w, "no eligible candidates")
	}
	return w.Flush()
}

func printIneligible(out io.Writer, seeker matching.FundingSeeker, candidates []matching.Candidate) error {
	var rejected []string
	for _, c := range candidates {
		if !matching.Eligible(seeker, c) {
			rejected = append(rejected, displayName(c))
		}
	}
	if len(rejected) == 0 {
		return nil
	}
	_, err := fmt.Fprintf(out, "\nineligible: %s\n", strings.Join(rejected, ", "))
	return err
}

func displayName(c matching.Candidate) string {
	if c.Name != "" {
		return c.Name
	}
	return c.ID
}
