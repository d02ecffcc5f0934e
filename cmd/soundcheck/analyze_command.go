package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"soundcheck/internal/analysis"
	"soundcheck/internal/config"
	"soundcheck/internal/ipc"
	"soundcheck/internal/queue"
)

func newAnalyzeCommand(ctx *commandContext) *cobra.Command {
	var sampleRate int
	var channels int
	var knownTempo float64
	var wait bool
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "analyze <file>",
		Short: "Queue a raw sample file for analysis",
		Long: "Queue a raw little-endian float32 sample file for analysis.\n" +
			"The daemon must be running; start it with `soundcheck start`.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if sampleRate <= 0 {
				return fmt.Errorf("--sample-rate must be positive")
			}

			path, err := config.ExpandPath(args[0])
			if err != nil {
				return fmt.Errorf("resolve path: %w", err)
			}
			info, err := os.Stat(path)
			if err != nil {
				return fmt.Errorf("inspect %q: %w", path, err)
			}
			if info.IsDir() {
				return fmt.Errorf("%q is a directory", path)
			}

			return ctx.withClient(func(client *ipc.Client) error {
				resp, err := client.Analyze(ipc.AnalyzeRequest{
					SourcePath: path,
					SampleRate: sampleRate,
					Channels:   channels,
					KnownTempo: knownTempo,
				})
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if !wait {
					if jsonOutput {
						return writeJSON(cmd, resp.Item)
					}
					fmt.Fprintf(out, "Queued job %d (%s)\n", resp.Item.ID, resp.Item.CorrelationID)
					return nil
				}

				final, err := waitForJob(cmd, client, resp.Item.ID)
				if err != nil {
					return err
				}
				if jsonOutput {
					return writeJSON(cmd, final)
				}
				return printJobResult(cmd, final)
			})
		},
	}

	cmd.Flags().IntVar(&sampleRate, "sample-rate", 0, "Sample rate of the input in Hz (required)")
	cmd.Flags().IntVar(&channels, "channels", 0, "Channel count from file metadata (0 = unknown)")
	cmd.Flags().Float64Var(&knownTempo, "tempo", 0, "Known tempo in BPM, skips detection when confident")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for the job to finish and print the result")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Emit machine-readable JSON")
	_ = cmd.MarkFlagRequired("sample-rate")

	return cmd
}

// waitForJob polls the daemon until the job reaches a terminal status,
// echoing progress transitions along the way.
func waitForJob(cmd *cobra.Command, client *ipc.Client, id int64) (*ipc.JobItem, error) {
	out := cmd.OutOrStdout()
	var lastPhase string
	var lastPercent float64

	for {
		resp, err := client.QueueDescribe(id)
		if err != nil {
			return nil, err
		}
		item := resp.Item

		status, _ := queue.ParseStatus(item.Status)
		if status == queue.StatusCompleted || status == queue.StatusFailed {
			return &item, nil
		}

		if item.ProgressPhase != lastPhase || item.ProgressPercent != lastPercent {
			lastPhase = item.ProgressPhase
			lastPercent = item.ProgressPercent
			if lastPhase != "" {
				fmt.Fprintf(out, "  %3.0f%% %s\n", lastPercent, lastPhase)
			}
		}

		select {
		case <-cmd.Context().Done():
			return nil, cmd.Context().Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func printJobResult(cmd *cobra.Command, item *ipc.JobItem) error {
	out := cmd.OutOrStdout()
	if item.Status == string(queue.StatusFailed) {
		return fmt.Errorf("analysis failed: %s", item.ErrorMessage)
	}

	var result analysis.Result
	if err := json.Unmarshal([]byte(item.ResultJSON), &result); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}

	fmt.Fprintf(out, "Job %d completed\n", item.ID)
	rows := [][]string{
		{"Integrated loudness", fmt.Sprintf("%.1f LUFS", result.Loudness.Integrated)},
		{"Momentary max", fmt.Sprintf("%.1f LUFS", result.Loudness.MomentaryMax)},
		{"Short-term max", fmt.Sprintf("%.1f LUFS", result.Loudness.ShortTermMax)},
		{"RMS", fmt.Sprintf("%.1f dB", result.RMS)},
	}
	if result.Tempo != nil {
		rows = append(rows, []string{"Tempo", fmt.Sprintf("%.1f BPM (confidence %.2f)", result.Tempo.BPM, result.Tempo.Confidence)})
	} else {
		rows = append(rows, []string{"Tempo", "not measured"})
	}
	if result.Stereo != nil {
		rows = append(rows, []string{"Stereo correlation", fmt.Sprintf("%.3f", result.Stereo.Correlation)})
		rows = append(rows, []string{"Stereo width", fmt.Sprintf("%.3f", result.Stereo.Width)})
	} else {
		rows = append(rows, []string{"Stereo", "not measured"})
	}
	if result.Technical != nil {
		rows = append(rows, []string{"True peak", fmt.Sprintf("%.1f dBTP", result.Technical.TruePeak)})
	}
	fmt.Fprintln(out, renderTable([]string{"Metric", "Value"}, rows, []columnAlignment{alignLeft, alignLeft}))
	return nil
}
