package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var lessonsCmd = &cobra.Command{
	Use:   "lessons",
	Short: "List ingested lessons",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		st, err := openIndex(cfg)
		if err != nil {
			return err
		}
		defer st.Close()

		infos, err := st.ListLessons()
		if err != nil {
			return err
		}
		if len(infos) == 0 {
			fmt.Println("No lessons ingested yet.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "LESSON\tCHUNKS\tINGESTED")
		for _, info := range infos {
			fmt.Fprintf(w, "%s\t%d\t%s\n", info.Name, info.Chunks, info.IngestedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(lessonsCmd)
}
