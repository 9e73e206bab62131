package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tapdeck/groupgen/internal/model"
)

var (
	generateContactsPath string
	generateUser         string
	generateSave         bool
	generateMinSize      int
	generateMaxGroups    int
	generateEnhanced     bool
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate groups for a contact list from a JSON file",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initApp(ctx, "generate")
		if err != nil {
			return err
		}
		defer env.Close()

		data, err := os.ReadFile(generateContactsPath)
		if err != nil {
			return eris.Wrapf(err, "read contacts file %s", generateContactsPath)
		}
		var contacts []model.Contact
		if err := json.Unmarshal(data, &contacts); err != nil {
			return eris.Wrap(err, "parse contacts file")
		}

		opts := model.DefaultGenerationOptions()
		opts.MinGroupSize = generateMinSize
		opts.MaxGroups = generateMaxGroups
		opts.EnhancedEventDetection = generateEnhanced

		groups, snapshot, err := env.orch.Generate(ctx, contacts, opts)
		if err != nil {
			return err
		}

		if generateSave {
			saved, err := env.store.SaveGroups(ctx, generateUser, groups)
			if err != nil {
				return err
			}
			groups = saved
			zap.L().Info("groups saved", zap.String("user", generateUser), zap.Int("count", len(saved)))
		}

		out := struct {
			Groups    []model.GroupCandidate `json:"groups"`
			Analytics any                    `json:"analytics"`
		}{Groups: groups, Analytics: snapshot}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return eris.Wrap(enc.Encode(out), "encode output")
	},
}

func init() {
	generateCmd.Flags().StringVar(&generateContactsPath, "contacts", "", "path to contacts JSON file (required)")
	generateCmd.Flags().StringVar(&generateUser, "user", "local", "user id to save groups under")
	generateCmd.Flags().BoolVar(&generateSave, "save", false, "persist generated groups to the store")
	generateCmd.Flags().IntVar(&generateMinSize, "min-group-size", 2, "minimum contacts per group")
	generateCmd.Flags().IntVar(&generateMaxGroups, "max-groups", 50, "maximum groups to return")
	generateCmd.Flags().BoolVar(&generateEnhanced, "enhanced", false, "enable venue lookups for event detection")
	_ = generateCmd.MarkFlagRequired("contacts")
	rootCmd.AddCommand(generateCmd)
}
