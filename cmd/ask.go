package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	flagK       int
	flagLessons []string
	flagSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask a one-shot question about your ingested transcripts",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		question := strings.Join(args, " ")

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger()

		st, err := openIndex(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		p := newPipeline(cfg, st, flagK, logger)

		answer, res, err := p.Ask(cmd.Context(), question, flagLessons, nil)
		if err != nil {
			return err
		}
		if res != nil && !res.Refined {
			fmt.Fprintf(os.Stderr, "note: reranking unavailable (%s), results use fused order\n", res.FallbackReason)
		}

		fmt.Println(answer)

		if flagSources && res != nil && len(res.Chunks) > 0 {
			fmt.Println("\nSources:")
			for _, c := range res.Chunks {
				fmt.Printf("  %s [%s - %s]\n", c.Lesson, c.StartStamp, c.EndStamp)
			}
		}
		return nil
	},
}

func init() {
	askCmd.Flags().IntVar(&flagK, "k", 0, "number of chunks to keep after reranking (default 8)")
	askCmd.Flags().StringArrayVar(&flagLessons, "lesson", nil, "restrict search to a lesson (repeatable)")
	askCmd.Flags().BoolVar(&flagSources, "sources", false, "print the lesson and timestamp of each excerpt used")
	rootCmd.AddCommand(askCmd)
}
