package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/plantcare-ai/plantcare-bot/internal/capability"
	"github.com/plantcare-ai/plantcare-bot/internal/render"
)

type statusReport struct {
	URL                    string `json:"url" yaml:"url"`
	Reachable              bool   `json:"reachable" yaml:"reachable"`
	ImageAnalysisAvailable bool   `json:"image_analysis_available" yaml:"image_analysis_available"`
	ChatAvailable          bool   `json:"chat_available" yaml:"chat_available"`
	LLMAvailable           bool   `json:"gemini_llm_available" yaml:"gemini_llm_available"`
}

func newStatusCmd(a *app) *cobra.Command {
	var outputFormat string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check which backend features are available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
			defer cancel()

			registry := capability.NewRegistry()
			capability.NewPoller(a.client, registry, 0).Poll(ctx)
			st := registry.Status()

			report := statusReport{
				URL:                    a.client.BaseURL(),
				Reachable:              st.Reachable,
				ImageAnalysisAvailable: st.ImageAnalysisAvailable,
				ChatAvailable:          st.ChatAvailable,
				LLMAvailable:           st.LLMAvailable,
			}
			return writeStatus(cmd.OutOrStdout(), report, outputFormat)
		},
	}

	cmd.Flags().StringVarP(&outputFormat, "output", "o", render.OutputHuman, "Output format (human, json, yaml)")

	return cmd
}

func writeStatus(w io.Writer, r statusReport, outputFormat string) error {
	switch outputFormat {
	case render.OutputJSON:
		out, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	case render.OutputYAML:
		return yaml.NewEncoder(w).Encode(r)
	case render.OutputHuman, "":
	default:
		return fmt.Errorf("unknown output format %q", outputFormat)
	}

	available := func(ok bool) string {
		if ok {
			return color.GreenString("disponible")
		}
		return color.RedString("no disponible")
	}

	bold := color.New(color.Bold)
	bold.Fprintf(w, "Backend: ")
	if r.Reachable {
		fmt.Fprintf(w, "%s %s\n", r.URL, color.GreenString("(en línea)"))
	} else {
		fmt.Fprintf(w, "%s %s\n", r.URL, color.RedString("(sin conexión)"))
		return nil
	}
	fmt.Fprintf(w, "  Análisis de imágenes: %s\n", available(r.ImageAnalysisAvailable))
	fmt.Fprintf(w, "  Chat:                 %s\n", available(r.ChatAvailable))
	fmt.Fprintf(w, "  Modelo de lenguaje:   %s\n", available(r.LLMAvailable))
	fmt.Fprintf(w, "  Comprobado:           %s\n", time.Now().Format(time.DateTime))
	return nil
}
