package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/plantcare-ai/plantcare-bot/internal/render"
	"github.com/plantcare-ai/plantcare-bot/internal/session"
)

func newChatCmd(a *app) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "chat MESSAGE",
		Short: "Ask a plant care question",
		Long: `Send a question to the backend's knowledge base and print the answer.

Examples:
  plantcare chat "¿Cada cuánto riego un cactus?"
  plantcare chat --category Succulents "¿Necesita sol directo?"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.connect(); err != nil {
				return err
			}

			conv := session.New(nil)
			if category != "" {
				if _, err := conv.SelectCategory(category); err != nil {
					return fmt.Errorf("%s: %s", session.ErrorMessage(err, session.RequestChat, a.cfg.APIURL), category)
				}
			}

			req, err := conv.BeginSend(strings.Join(args, " "))
			if err != nil {
				return fmt.Errorf("%s", session.ErrorMessage(err, session.RequestChat, a.cfg.APIURL))
			}

			out := a.execute(cmd, req, " Pensando...")
			conv.Apply(out)
			if out.Err != nil {
				return fmt.Errorf("%s (%w)", session.ErrorMessage(out.Err, out.Kind, a.client.BaseURL()), out.Err)
			}

			render.Reply(cmd.OutOrStdout(), out.Reply)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Care category sent as conversation context (e.g. Succulents)")

	return cmd
}
