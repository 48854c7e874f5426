/*
Package cli provides command-line helpers for the curator command.

Output Formatting:

Command results are printed as text, JSON, YAML or CSV. Results that
implement Tabular render as aligned columns in text mode and as rows in CSV:

	formatter, err := cli.NewFormatter(cli.FormatJSON)
	if err != nil {
		return err
	}
	return formatter.FormatTo(os.Stdout, report)

Progress Reporting:

	progress := cli.NewProgressReporter(os.Stderr)
	progress.Start(int64(len(items)))
	for i := range items {
		progress.Update(int64(i + 1))
	}
	progress.Finish()

Signal Handling:

	ctx, stop := cli.SetupSignalHandler()
	defer stop()
*/
package cli
