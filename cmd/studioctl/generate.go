package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"studio/internal/domain"
	"studio/internal/imagegen"
	"studio/internal/infra/credentials"
	"studio/internal/providers/genai"
)

func newGenerateCmd() *cobra.Command {
	var (
		flags   workspaceFlags
		key     string
		model   string
		timeout time.Duration
		output  string
	)
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Run one generation from local images and save the result",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := flags.workspace(cmd)
			if err != nil {
				return err
			}
			if err := ws.CanGenerate(); err != nil {
				return err
			}

			key = strings.TrimSpace(key)
			if key == "" {
				key = strings.TrimSpace(os.Getenv("GEMINI_API_KEY"))
			}
			if key == "" && os.Getenv("DATABASE_URL") != "" {
				runner, closeDB, err := openRunner(cmd.Context(), "generate")
				if err != nil {
					return err
				}
				key, err = credentials.NewStore(runner).GeminiAPIKey(cmd.Context())
				closeDB()
				if err != nil {
					return fmt.Errorf("load stored api key: %w", err)
				}
			}

			logger := cliLogger("generate")
			exec := genai.NewExecutor(genai.Options{Model: model, Timeout: timeout, Logger: &logger})
			req := imagegen.ComposeWorkspace(ws)
			start := time.Now()
			uri, err := exec.Execute(cmd.Context(), key, req)
			if err != nil {
				return err
			}
			mimeType, data, ok := domain.ParseDataURI(uri)
			if !ok {
				return fmt.Errorf("provider returned an unreadable image")
			}
			if output == "" {
				output = fmt.Sprintf("studio-%d%s", time.Now().UnixMilli(), extensionFor(mimeType))
			}
			if err := os.WriteFile(output, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", output, err)
			}
			logger.Info().Str("mode", string(req.Mode)).Dur("elapsed", time.Since(start)).Str("file", output).Msg("image saved")
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&key, "key", "", "Gemini API key (falls back to GEMINI_API_KEY, then the stored key)")
	cmd.Flags().StringVar(&model, "model", genai.DefaultModel, "image model")
	cmd.Flags().DurationVar(&timeout, "timeout", 120*time.Second, "provider deadline")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (defaults to studio-<unixms>.<ext>)")
	return cmd
}

func extensionFor(mimeType string) string {
	switch mimeType {
	case domain.MIMEJPEG:
		return ".jpg"
	case domain.MIMEWEBP:
		return ".webp"
	}
	return ".png"
}
