package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"text/tabwriter"

	"github.com/pkg/errors"

	"github.com/Faiver55/skylearn-flashcards-sub001/core/lms"
)

func (cli *commandLine) detectLMS() error {
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVERSION\tSTATUS")
	for _, desc := range cli.registry.Integrations(context.Background()) {
		status := "inactive"
		if desc.Active {
			status = "active"
		}
		version := desc.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", desc.Name, version, status)
	}
	return w.Flush()
}

// lmsSettings prints the settings, or updates the fields given as flags and prints the result.
func (cli *commandLine) lmsSettings(args []string) error {
	ctx := context.Background()
	current, err := cli.settings.Load(ctx)
	if err != nil {
		return err
	}

	settingsCmd := flag.NewFlagSet("lms settings", flag.ContinueOnError)
	settingsCmd.SetOutput(cli.out)
	enabled := settingsCmd.Bool("enabled", current.Enabled, "Turn the LMS integration on.")
	accuracy := settingsCmd.Float64("accuracy", current.RequiredAccuracy, "The accuracy (0-100) a learner needs to complete a set.")
	autoComplete := settingsCmd.Bool("autocomplete", current.AutoComplete, "Mark linked lessons complete on a passing completion.")
	grades := settingsCmd.Bool("grades", current.GradeSubmission, "Send the accuracy as grade to the LMS that record grades.")
	tracking := settingsCmd.Bool("tracking", current.ProgressTracking, "Forward completions to the LMS.")
	restrict := settingsCmd.Bool("restrict", current.EnrollmentRestriction, "Hide the sets a learner cannot access instead of locking them.")
	if err = settingsCmd.Parse(args); err != nil {
		return errHelp
	}

	if settingsCmd.NFlag() > 0 {
		acc := lms.Percent(*accuracy)
		if current, err = cli.settings.Save(ctx, lms.SettingsForm{
			Enabled:               lms.Checkbox(*enabled),
			RequiredAccuracy:      &acc,
			AutoComplete:          lms.Checkbox(*autoComplete),
			GradeSubmission:       lms.Checkbox(*grades),
			ProgressTracking:      lms.Checkbox(*tracking),
			EnrollmentRestriction: lms.Checkbox(*restrict),
		}); err != nil {
			return err
		}
	}

	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(current), "printing lms settings")
}
