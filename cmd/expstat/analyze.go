package main

import (
	"fmt"
	"math/rand"
	"os"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/ablab/experimentutils"
)

var (
	expPositives  int64
	expTotal      int64
	ctrlPositives int64
	ctrlTotal     int64

	datasetPath string
	resamples   int
	seed        int64
)

// dataset is the YAML input for mean and bootstrap: one metric value per
// unit, per group.
type dataset struct {
	Experiment []float64 `yaml:"experiment"`
	Control    []float64 `yaml:"control"`
}

func loadDataset(path string) (*dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var ds dataset
	if err := yaml.Unmarshal(raw, &ds); err != nil {
		return nil, fmt.Errorf("parsing dataset %s: %w", path, err)
	}
	return &ds, nil
}

// probCmd tests the difference of two conversion rates
var probCmd = &cobra.Command{
	Use:   "prob",
	Short: "Test the difference of two conversion rates",
	RunE: func(cmd *cobra.Command, args []string) error {
		ab, err := newABTest()
		if err != nil {
			return err
		}

		res, err := ab.TestProportions(
			experimentutils.Counts{Positives: expPositives, Total: expTotal},
			experimentutils.Counts{Positives: ctrlPositives, Total: ctrlTotal},
			practicalDiff,
		)
		if err != nil {
			return err
		}

		printResult(cmd, res)
		return nil
	},
}

// meanCmd tests the difference of two sample means
var meanCmd = &cobra.Command{
	Use:   "mean",
	Short: "Test the difference of two sample means",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(datasetPath)
		if err != nil {
			return err
		}

		ab, err := newABTest()
		if err != nil {
			return err
		}

		res, err := ab.TestMeans(ds.Experiment, ds.Control, practicalDiff)
		if err != nil {
			return err
		}

		printResult(cmd, res)
		return nil
	},
}

// bootstrapCmd resamples the experiment group of a dataset
var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Bootstrap-resample a metric sample and print resample means",
	RunE: func(cmd *cobra.Command, args []string) error {
		ds, err := loadDataset(datasetPath)
		if err != nil {
			return err
		}

		var rng *rand.Rand
		if cmd.Flags().Changed("seed") {
			rng = rand.New(rand.NewSource(seed))
		}

		drawn, err := experimentutils.Bootstrap(rng, ds.Experiment, resamples)
		if err != nil {
			return err
		}

		for i, rs := range drawn {
			cmd.Printf("resample %d: mean=%.6f\n", i, stat.Mean(rs, nil))
		}
		return nil
	},
}

func init() {
	probCmd.Flags().Int64Var(&expPositives, "exp-positives", 0, "positive samples in the treatment group")
	probCmd.Flags().Int64Var(&expTotal, "exp-total", 0, "total samples in the treatment group")
	probCmd.Flags().Int64Var(&ctrlPositives, "ctrl-positives", 0, "positive samples in the control group")
	probCmd.Flags().Int64Var(&ctrlTotal, "ctrl-total", 0, "total samples in the control group")

	meanCmd.Flags().StringVarP(&datasetPath, "input", "i", "", "YAML dataset with experiment and control values")
	_ = meanCmd.MarkFlagRequired("input")

	bootstrapCmd.Flags().StringVarP(&datasetPath, "input", "i", "", "YAML dataset with experiment values")
	bootstrapCmd.Flags().IntVarP(&resamples, "resamples", "n", 1000, "number of resamples to draw")
	bootstrapCmd.Flags().Int64Var(&seed, "seed", 0, "seed for reproducible draws")
	_ = bootstrapCmd.MarkFlagRequired("input")
}
