package main

import (
	"fmt"
	"strings"

	"github.com/amaumene/reelwatch/internal/classifier"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/spf13/cobra"
)

func newClassifyCommand() *cobra.Command {
	var rulesFile string
	var fallback string

	cmd := &cobra.Command{
		Use:   "classify <text>...",
		Short: "Show how a post would be classified",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rules := classifier.DefaultRules()
			if rulesFile != "" {
				loaded, err := classifier.LoadRules(rulesFile)
				if err != nil {
					return err
				}
				rules = loaded
			}

			cls, err := classifier.New(rules)
			if err != nil {
				return err
			}

			a := cls.Classify(strings.Join(args, " "), models.Language(fallback))
			rows := [][]string{
				{"update_type", string(a.UpdateType)},
				{"language", string(a.Language)},
				{"movie_name", a.MovieName},
				{"actor_name", a.ActorName},
				{"director_name", a.DirectorName},
				{"production_house", a.ProductionHouse},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}

	cmd.Flags().StringVar(&rulesFile, "rules", "", "Classifier rules file (YAML, JSON or TOML)")
	cmd.Flags().StringVar(&fallback, "language", "", "Fallback language when no keyword matches")
	return cmd
}
