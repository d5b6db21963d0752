package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/conneroisu/assetforge/internal/pipeline"
	"github.com/conneroisu/assetforge/internal/tasks"
)

var runCmd = &cobra.Command{
	Use:   "run <task>...",
	Short: "Run individual tasks in order",
	Long: `Run one or more named tasks in series. Use --prod to switch the
production flag on first.

Examples:
  assetforge run styles scripts
  assetforge run --prod images webp
  assetforge run --list`,
	RunE: runTasks,
}

var (
	runProd bool
	runList bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolVar(&runProd, "prod", false, "Run in production mode")
	runCmd.Flags().BoolVar(&runList, "list", false, "List runnable tasks")
}

func runTasks(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}

	if runList {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(taskNames(a.set), "\n"))
		return nil
	}
	if len(args) == 0 {
		return fmt.Errorf("no task given; available: %s", strings.Join(taskNames(a.set), ", "))
	}

	series, err := composeRun(a.set, runProd, args)
	if err != nil {
		return err
	}
	return a.run(series)
}

// composeRun looks up every named task and chains them.
func composeRun(set *tasks.Set, prod bool, names []string) (*pipeline.SeriesTask, error) {
	var chain []pipeline.Task
	if prod {
		chain = append(chain, pipeline.ToProduction())
	}
	for _, name := range names {
		t, err := set.Lookup(name)
		if err != nil {
			return nil, err
		}
		chain = append(chain, t)
	}
	return pipeline.Series("run", chain...), nil
}

func taskNames(set *tasks.Set) []string {
	all := set.All()
	names := make([]string, 0, len(all))
	for _, t := range all {
		names = append(names, t.Name())
	}
	return names
}
