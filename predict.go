package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"credit-advisor/config"
	"credit-advisor/domain"
	"credit-advisor/inference"
	"credit-advisor/logger"
	"credit-advisor/service"
)

var predictCmd = &cobra.Command{
	Use:   "predict [profile.json]",
	Short: "Classify one profile with the configured model and print the label",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runPredict,
}

var promptCmd = &cobra.Command{
	Use:   "prompt [request.json]",
	Short: "Print the generation prompt for a recommendation request",
	Long: "Reads {\"predictedClass\": ..., ...profile} from the file or stdin and prints\n" +
		"the prompt the service would send, without calling the generator.",
	Args: cobra.MaximumNArgs(1),
	RunE: runPrompt,
}

func init() {
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(promptCmd)
}

func runPredict(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	profile, err := domain.ParseProfile(data)
	if err != nil {
		return err
	}

	classifier := inference.NewProcessClassifier(inferenceOptions(cfg.Inference), log, nil)
	prediction, err := service.NewPredictionService(classifier, log).Predict(cmd.Context(), profile)
	if err != nil {
		return withInferenceDetail(err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	return enc.Encode(prediction)
}

func runPrompt(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd, args)
	if err != nil {
		return err
	}

	var req domain.RecommendationRequest
	if err := req.UnmarshalJSON(data); err != nil {
		return err
	}

	_, err = fmt.Fprint(cmd.OutOrStdout(), service.BuildPrompt(req.PredictedClass, req.Profile))
	return err
}

// withInferenceDetail appends what the classifier wrote to stderr.
func withInferenceDetail(err error) error {
	var infErr *domain.InferenceError
	if errors.As(err, &infErr) {
		if detail := strings.TrimSpace(infErr.Detail); detail != "" {
			return fmt.Errorf("%w: %s", err, detail)
		}
	}
	return err
}

// readInput reads the named file, or stdin when no file is given.
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}
