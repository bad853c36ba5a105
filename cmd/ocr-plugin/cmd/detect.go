package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ocr-plugin/internal/imaging"
	"github.com/ironsheep/ocr-plugin/internal/plugin"
	"github.com/ironsheep/ocr-plugin/internal/server"
)

// detectOutput is what detect prints.
type detectOutput struct {
	Image   string              `json:"image"`
	Width   int                 `json:"width"`
	Height  int                 `json:"height"`
	Count   int                 `json:"count"`
	Regions []plugin.TextRegion `json:"regions"`
	Overlay string              `json:"overlay,omitempty"`
}

func (a *app) detectCommand() *cobra.Command {
	var (
		overlayPath string
		boxColor    string
		showText    bool
	)

	cmd := &cobra.Command{
		Use:   "detect <image>",
		Short: "Detect text regions in an image file",
		Long: `Detect text regions in an image and print them as JSON.

Each region has an id, a bounding box {x, y, width, height}, the recognized
text and a confidence between 0 and 1. With --overlay the image is also saved
with each region outlined.

Examples:
  ocr-plugin detect screenshot.png
  ocr-plugin detect poster.jpg --languages en --overlay poster-regions.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			img, err := imaging.LoadFile(args[0])
			if err != nil {
				return err
			}

			p, err := a.newPlugin()
			if err != nil {
				return err
			}
			defer p.Close()

			regions, err := p.DetectText(img)
			if err != nil {
				return err
			}

			out := detectOutput{
				Image:   args[0],
				Width:   img.Bounds().Dx(),
				Height:  img.Bounds().Dy(),
				Count:   len(regions),
				Regions: regions,
			}

			if overlayPath != "" {
				opts := a.cfg.ToOverlayOptions()
				if cmd.Flags().Changed("box-color") {
					if _, err := imaging.ParseColor(boxColor); err != nil {
						return err
					}
					opts.BoxColor = boxColor
				}
				if cmd.Flags().Changed("show-text") {
					opts.ShowLabels = showText
				}
				annotated := imaging.Annotate(img, server.RegionBoxes(regions), opts)
				if err := imaging.SavePNG(annotated, overlayPath); err != nil {
					return err
				}
				out.Overlay = overlayPath
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(out); err != nil {
				return fmt.Errorf("failed to write result: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&overlayPath, "overlay", "o", "", "write a PNG with regions outlined to this path")
	cmd.Flags().StringVar(&boxColor, "box-color", "", "overlay outline color (default from config)")
	cmd.Flags().BoolVar(&showText, "show-text", true, "draw recognized text on the overlay")

	return cmd
}
