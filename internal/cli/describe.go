package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/NotHilal/PLM-Hackaton/loader"
	"github.com/NotHilal/PLM-Hackaton/schema"
	"github.com/NotHilal/PLM-Hackaton/table"
)

type DescribeCmd struct{}

func NewDescribeCmd() *DescribeCmd {
	return &DescribeCmd{}
}

func (c *DescribeCmd) Command() *cobra.Command {
	return &cobra.Command{
		Use:   "describe [file...]",
		Short: "Profile the columns of extract files, or of the loaded extracts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWithApp(cmd, func(ctx context.Context, a *app) error {
				var profiles []*schema.Profile
				if len(args) == 0 {
					snap := a.store.Current()
					for _, c := range table.Categories {
						t := snap.Table(c)
						if t == nil {
							a.log.Info("No extract loaded", "category", c)
							continue
						}
						p, err := schema.DiscoverTable(t)
						if err != nil {
							return fmt.Errorf("failed to profile %s: %w", c, err)
						}
						profiles = append(profiles, p)
					}
				}
				for _, path := range args {
					p, err := describeFile(ctx, a.loader, path)
					if err != nil {
						return err
					}
					profiles = append(profiles, p)
				}
				return printProfiles(a.out, profiles)
			})
		},
	}
}

func describeFile(ctx context.Context, l *loader.Loader, path string) (*schema.Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	name := filepath.Base(path)
	if strings.EqualFold(filepath.Ext(name), ".csv") {
		_, profile, err := loader.ParseCSV(name, data)
		return profile, err
	}
	t, err := l.Parse(ctx, &loader.Object{Name: name, Data: data})
	if err != nil {
		return nil, err
	}
	return schema.DiscoverTable(t)
}

func printProfiles(p *printer, profiles []*schema.Profile) error {
	if p.isJSON() {
		if len(profiles) == 1 {
			return p.writeJSON(profiles[0])
		}
		return p.writeJSON(profiles)
	}
	if p.format != formatTable {
		return errUnsupportedFormat(p.format, "describe")
	}

	for _, prof := range profiles {
		fmt.Fprintf(p.w, "%s (%d rows)\n", prof.Name, prof.Rows)
		tw := p.newTable("Column", "Kind", "Role", "Nulls", "Unique", "Samples")
		for _, c := range prof.Columns {
			role := string(c.Role)
			if c.SkipReason != "" {
				role += " (" + c.SkipReason + ")"
			}
			tw.Append([]string{
				c.Name,
				string(c.Kind),
				role,
				fmt.Sprintf("%d", c.NullCount),
				fmt.Sprintf("%d", c.UniqueCount),
				strings.Join(c.SampleValues, ", "),
			})
		}
		tw.Render()
	}
	return nil
}
