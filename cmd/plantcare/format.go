package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/plantcare-ai/plantcare-bot/internal/format"
)

func newFormatCmd() *cobra.Command {
	var telegram, plain bool

	cmd := &cobra.Command{
		Use:   "format [FILE]",
		Short: "Format assistant text as HTML",
		Long: `Clean up and format assistant text the way the web UI shows it.
Reads FILE, or stdin when no file is given.

Examples:
  plantcare format respuesta.txt
  echo "**Riego**: poco" | plantcare format --telegram`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if telegram && plain {
				return fmt.Errorf("--telegram and --plain cannot be used together")
			}

			in := cmd.InOrStdin()
			if len(args) == 1 {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("failed to open input: %w", err)
				}
				defer f.Close()
				in = f
			}

			text, err := io.ReadAll(in)
			if err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}

			doc := format.Parse(string(text))
			var out string
			switch {
			case telegram:
				out = format.TelegramHTML(doc)
			case plain:
				out = format.Plain(doc)
			default:
				out = format.HTML(doc)
			}
			if out == "" {
				return nil
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), out)
			return err
		},
	}

	cmd.Flags().BoolVar(&telegram, "telegram", false, "Use the HTML subset accepted by Telegram")
	cmd.Flags().BoolVar(&plain, "plain", false, "Print plain text with list markers")

	return cmd
}
