package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/abhisek/smartmath/internal/profile"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show or change the stored display name",
}

// withProfiles hands fn a profile store backed by the database.
func withProfiles(cmd *cobra.Command, fn func(ctx context.Context, p *profile.Store) error) error {
	s, err := openStore(cmd)
	if err != nil {
		return err
	}
	defer s.Close()
	return fn(context.Background(), profile.NewStore(s.PreferenceRepo(), nil))
}

var profileShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the stored profile",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withProfiles(cmd, func(ctx context.Context, p *profile.Store) error {
			pr, ok := p.Load(ctx)
			if !ok {
				fmt.Println("No profile yet. Run smartmath to create one.")
				return nil
			}
			fmt.Printf("Name:   %s\n", pr.DisplayName)
			if t, ok := p.Theme(ctx); ok {
				fmt.Printf("Theme:  %s\n", t)
			} else {
				fmt.Println("Theme:  (follows terminal)")
			}
			return nil
		})
	},
}

var profileSetCmd = &cobra.Command{
	Use:   "set <name>",
	Short: "Set the display name",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name, err := profile.NormalizeName(strings.Join(args, " "))
		if err != nil {
			return fmt.Errorf("invalid name: %w", err)
		}
		return withProfiles(cmd, func(ctx context.Context, p *profile.Store) error {
			if err := p.Save(ctx, profile.Profile{DisplayName: name}); err != nil {
				return fmt.Errorf("save profile: %w", err)
			}
			fmt.Printf("Name set to %s.\n", name)
			return nil
		})
	},
}

var profileResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Delete the stored profile so onboarding runs again",
	RunE: func(cmd *cobra.Command, args []string) error {
		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			fmt.Print("This will forget your name. Continue? [y/N] ")
			var answer string
			fmt.Scanln(&answer)
			if a := strings.ToLower(strings.TrimSpace(answer)); a != "y" && a != "yes" {
				fmt.Println("Aborted.")
				return nil
			}
		}
		return withProfiles(cmd, func(ctx context.Context, p *profile.Store) error {
			if err := p.Clear(ctx); err != nil {
				return fmt.Errorf("clear profile: %w", err)
			}
			fmt.Println("Profile removed.")
			return nil
		})
	},
}

func init() {
	profileResetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")

	profileCmd.AddCommand(profileShowCmd)
	profileCmd.AddCommand(profileSetCmd)
	profileCmd.AddCommand(profileResetCmd)
}
