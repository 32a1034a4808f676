package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/saeedalam/protodetect/internal/profile"
)

var profilesCmd = &cobra.Command{
	Use:   "profiles [name]",
	Short: "List language profiles or print one as YAML",
	Long: `List the available language profiles, built-in and custom.

With a name, alias or extension the full profile is printed as YAML, which
is also the format accepted for custom profiles in the configuration file.

Examples:
  protodetect profiles
  protodetect profiles kotlin > my-kotlin.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runProfiles,
}

func runProfiles(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 1 {
		p, err := env.registry.Resolve(args[0])
		if err != nil {
			return err
		}
		y, err := profile.Marshal(p)
		if err != nil {
			return err
		}
		_, err = io.WriteString(out, y)
		return err
	}

	fmt.Fprintf(out, "%-12s %-26s %-34s %-12s %s\n", "NAME", "ALIASES", "EXTENSIONS", "ANNOTATIONS", "PARAMETERS")
	for _, p := range env.registry.Profiles() {
		fmt.Fprintf(out, "%-12s %-26s %-34s %-12s %s\n",
			p.Name, orDash(p.Aliases), orDash(p.Extensions), p.AnnotationStyle, p.ParameterStyle)
	}
	return nil
}

func orDash(words []string) string {
	if len(words) == 0 {
		return "-"
	}
	return strings.Join(words, ",")
}
