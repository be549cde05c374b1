package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/kubev2v/priority-scheduler/pkg/scheduler"
)

type demoTask struct {
	priority int
	label    string
}

var demoTasks = []demoTask{
	{priority: 1, label: "Low"},
	{priority: 3, label: "High"},
	{priority: 2, label: "Medium"},
	{priority: 5, label: "Very high"},
}

func NewDemoCommand() *cobra.Command {
	var workers int

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Submit a handful of prioritized tasks, run them and stop",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDemo(cmd.OutOrStdout(), workers)
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 4, "Number of workers")
	return cmd
}

// runDemo queues every task before starting, so the workers pick them up in
// priority order. With more than one worker, completion order may still
// interleave.
func runDemo(out io.Writer, workers int) error {
	sched, err := scheduler.New(scheduler.WithName("demo"), scheduler.WithWorkers(workers))
	if err != nil {
		return err
	}
	defer sched.Stop()

	var mu sync.Mutex
	highlight := color.New(color.FgGreen, color.Bold)

	for _, t := range demoTasks {
		err := sched.SubmitFunc(t.priority, func() {
			mu.Lock()
			defer mu.Unlock()
			fmt.Fprintf(out, "%s priority task executed %s\n", highlight.Sprint(t.label), color.HiBlackString("(priority %d)", t.priority))
		})
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(out, color.CyanString("starting scheduler with %d workers, %d tasks queued", workers, sched.Len()))

	if err := sched.Start(); err != nil {
		return err
	}
	sched.Stop()

	stats := sched.Stats()
	fmt.Fprintln(out, color.CyanString("scheduler stopped: %d executed, %d failed", stats.Executed, stats.Failed))
	return nil
}
