package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/talentbridge/diploma-verifier/internal/logger"
	"github.com/talentbridge/diploma-verifier/internal/pipeline"
	"github.com/talentbridge/diploma-verifier/internal/verification"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run a single verification for a diploma record",
	Run: func(cmd *cobra.Command, _ []string) {
		verify(cmd)
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	verifyCmd.Flags().String("diploma-id", "", "id of the diploma record to verify")
	verifyCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before overwriting a verified record")

	verifyCmd.MarkFlagRequired("diploma-id")
}

// verify runs the pipeline once for an existing diploma record, resolving
// talent id and file path from the database.
func verify(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	diplomaID, _ := cmd.Flags().GetString("diploma-id")

	svc, err := buildServices(ctx, config, logger)
	if err != nil {
		logger.Fatal("building services", zap.Error(err))
	}
	defer svc.cleanup()

	diploma, err := svc.store.GetDiploma(ctx, diplomaID)
	if err != nil {
		logger.Fatal("loading diploma record",
			zap.String("diploma_id", diplomaID),
			zap.Error(err),
		)
	}

	if diploma.Status == verification.StatusVerified && cmd.Flag("yes").Value.String() == "false" {
		prompt := promptui.Select{
			Label: fmt.Sprintf("Diploma %s is already verified. Re-verify and overwrite?", diplomaID),
			Items: []string{PromptYes, PromptNo},
		}

		_, action, err := prompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}
		if action != PromptYes {
			logger.Info("exiting", zap.String("reason", "got no from prompt"))
			return
		}
	}

	result, err := svc.runner.Run(ctx, pipeline.Request{
		DiplomaID: diploma.ID,
		TalentID:  diploma.TalentID,
		FilePath:  diploma.FilePath,
	})
	if err != nil {
		logger.Fatal("verification failed", zap.Error(err))
	}

	pretty, _ := json.MarshalIndent(result, "", "  ")
	fmt.Println(string(pretty))

	logger.Info("verification completed",
		zap.String("diploma_id", diploma.ID),
		zap.String("status", string(result.Status)),
	)
}
