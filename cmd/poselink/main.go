// Package main runs the offline half of the pose fusion pipeline: it loads a
// capture dataset and a correspondence set, conditions the path, solves the
// calibration and reports the recovered transform with its residuals.
package main

import (
	"flag"
	"os"

	"github.com/edaniels/golog"

	"github.com/sitewalk/poselink/calibration"
	"github.com/sitewalk/poselink/dataset"
	"github.com/sitewalk/poselink/pathcond"
)

var logger = golog.NewDevelopmentLogger("poselink")

func main() {
	if err := realMain(os.Args[1:]); err != nil {
		logger.Fatal(err)
	}
}

func realMain(args []string) error {
	flags := flag.NewFlagSet("poselink", flag.ExitOnError)
	datasetPath := flags.String("dataset", "", "path to the JSON frame dataset")
	calibPath := flags.String("calibration", "", "path to the JSON correspondence set")
	manhattan := flags.Bool("manhattan", false, "reconstruct the path with axis-snapped headings")
	minSep := flags.Float64("min-separation", 0.05, "minimum separation between conditioned samples, meters")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if *datasetPath != "" {
		data, err := os.ReadFile(*datasetPath)
		if err != nil {
			return err
		}
		raw, err := dataset.ParseFrames(data)
		if err != nil {
			return err
		}
		cfg := pathcond.DefaultConfig()
		cfg.Manhattan = *manhattan
		cfg.MinSeparation = *minSep
		conditioned, err := pathcond.Condition(raw, cfg, logger)
		if err != nil {
			return err
		}
		logger.Infow("conditioned path", "samples", len(conditioned))
	}

	if *calibPath != "" {
		data, err := os.ReadFile(*calibPath)
		if err != nil {
			return err
		}
		set, err := dataset.ParseCorrespondences(data)
		if err != nil {
			return err
		}
		result, err := calibration.Solve(set)
		if err != nil {
			return err
		}
		logger.Infow("calibration solved",
			"scale", result.Transform.Scale(),
			"translation", result.Transform.Translation(),
			"maxError", result.MaxError,
			"meanError", result.MeanError,
		)
	}

	return nil
}
