package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/plantcare-ai/plantcare-bot/internal/render"
	"github.com/plantcare-ai/plantcare-bot/internal/session"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		contextText  string
		outputFormat string
	)

	cmd := &cobra.Command{
		Use:   "analyze IMAGE",
		Short: "Analyze a photo of a plant",
		Long: `Upload a plant photo to the backend and print the identification,
health assessment, diagnosis and care recommendations.

Examples:
  # Analyze a photo
  plantcare analyze monstera.jpg

  # Describe how the plant has been cared for
  plantcare analyze monstera.jpg --context "riego cada 3 días, hojas amarillas"

  # Machine readable output
  plantcare analyze monstera.jpg -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}
			return a.runAnalyze(cmd, args[0], contextText, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&contextText, "context", "c", "", "Watering, light and symptoms to take into account")
	cmd.Flags().StringVarP(&outputFormat, "output", "o", render.OutputHuman, "Output format (human, json, yaml)")

	return cmd
}

func (a *app) runAnalyze(cmd *cobra.Command, path, contextText, outputFormat string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	conv := session.New(nil)
	img := session.SelectedImage{
		Data:     data,
		MIMEType: http.DetectContentType(data),
		FileName: filepath.Base(path),
	}
	if err := conv.SelectImage(img); err != nil {
		return fmt.Errorf("%s: %s", path, session.ErrorMessage(err, session.RequestAnalyze, a.cfg.APIURL))
	}

	req, err := conv.BeginSend(contextText)
	if err != nil {
		return fmt.Errorf("%s", session.ErrorMessage(err, session.RequestAnalyze, a.cfg.APIURL))
	}

	out := a.execute(cmd, req, " Analizando tu planta...")
	conv.Apply(out)
	if out.Err != nil {
		return fmt.Errorf("%s (%w)", session.ErrorMessage(out.Err, out.Kind, a.client.BaseURL()), out.Err)
	}

	return render.Write(cmd.OutOrStdout(), out.Analysis, outputFormat)
}

// execute runs req against the backend with a spinner on stderr.
func (a *app) execute(cmd *cobra.Command, req session.Request, suffix string) session.Outcome {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	s := spinner.New(spinner.CharSets[11], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))
	s.Suffix = suffix
	s.Start()
	defer s.Stop()

	return session.Execute(ctx, a.client, req)
}
