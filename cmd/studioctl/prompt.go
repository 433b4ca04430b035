package main

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"studio/internal/domain"
	"studio/internal/imagegen"
	"studio/internal/ingest"
)

// workspaceFlags builds a workspace from local files, the same way the HTTP
// upload path does.
type workspaceFlags struct {
	mode     string
	products []string
	person   string
	settings domain.GenerationSettings
}

func (f *workspaceFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.mode, "mode", "m", string(domain.ModeAIModel), "ai_model, own_model or flat_lay")
	cmd.Flags().StringSliceVarP(&f.products, "product", "p", nil, "product image path (repeatable)")
	cmd.Flags().StringVar(&f.person, "person", "", "reference person image (own_model only)")
	cmd.Flags().StringVar(&f.settings.Subject, "subject", "", "model or product description")
	cmd.Flags().StringVar(&f.settings.Action, "action", "", "pose or action")
	cmd.Flags().StringVar(&f.settings.Surroundings, "surroundings", "", "location or setting")
	cmd.Flags().StringVar(&f.settings.Style, "style", "", "photography style")
}

func (f *workspaceFlags) workspace(cmd *cobra.Command) (domain.Workspace, error) {
	mode, err := domain.ParseMode(f.mode)
	if err != nil {
		return domain.Workspace{}, err
	}
	ws := domain.NewWorkspace(0)
	ws.SwitchMode(mode)
	ws.Settings = f.settings

	logger := cliLogger("prompt")
	norm := ingest.NewNormalizer(ingest.Options{Logger: &logger})

	products, err := readFiles(f.products)
	if err != nil {
		return ws, err
	}
	imgs, err := norm.Batch(cmd.Context(), nil, products, ws.Limit(domain.CollectionProducts))
	if err != nil {
		return ws, err
	}
	ws.SetImages(domain.CollectionProducts, imgs)

	if f.person != "" {
		if !mode.AllowsPerson() {
			return ws, fmt.Errorf("%s mode takes no person image", mode)
		}
		persons, err := readFiles([]string{f.person})
		if err != nil {
			return ws, err
		}
		imgs, err := norm.Batch(cmd.Context(), nil, persons, ws.Limit(domain.CollectionPersons))
		if err != nil {
			return ws, err
		}
		ws.SetImages(domain.CollectionPersons, imgs)
	}
	return ws, nil
}

func readFiles(paths []string) ([]ingest.File, error) {
	files := make([]ingest.File, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", p, err)
		}
		mimeType := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
		if mimeType == "" {
			mimeType = http.DetectContentType(data)
		}
		files = append(files, ingest.File{Name: filepath.Base(p), MIMEType: mimeType, Data: data})
	}
	return files, nil
}

func newPromptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Inspect composed generation requests",
	}

	var flags workspaceFlags
	preview := &cobra.Command{
		Use:   "preview",
		Short: "Print the instruction and part layout a generation would send",
		RunE: func(cmd *cobra.Command, args []string) error {
			ws, err := flags.workspace(cmd)
			if err != nil {
				return err
			}
			req := imagegen.ComposeWorkspace(ws)
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "mode:   %s\naspect: %s\nsize:   %s\n", req.Mode, req.AspectRatio, req.ImageSize)
			for i, p := range req.Parts {
				if p.Text != "" {
					fmt.Fprintf(out, "part %d: %s text\n", i, p.Role)
					continue
				}
				fmt.Fprintf(out, "part %d: %s %s\n", i, p.Role, p.MIMEType)
			}
			fmt.Fprintf(out, "\n%s\n", req.Prompt())
			if err := ws.CanGenerate(); err != nil {
				fmt.Fprintf(out, "\nnot ready: %v\n", err)
			}
			return nil
		},
	}
	flags.register(preview)

	cmd.AddCommand(preview)
	return cmd
}
