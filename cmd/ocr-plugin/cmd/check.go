package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ironsheep/ocr-plugin/internal/ocr"
)

// errCheckFailed marks a failed check; details are already printed.
var errCheckFailed = errors.New("dependency check failed")

func (a *app) checkCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the OCR engine and language data are installed",
		Long: `Check that the OCR engine is available and that the configured device and
languages can be loaded. Exits non-zero with installation hints otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()

			if a.factory == nil {
				info := ocr.Info(a.cfg.OCR.TessdataPrefix)
				if err := ocr.CheckDependency(); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "OCR engine: missing\n  %v\n", err)
					return errCheckFailed
				}
				fmt.Fprintf(out, "OCR engine: %s %s\n", info.Backend, info.Version)
				if len(info.Languages) > 0 {
					fmt.Fprintf(out, "Installed languages: %s\n", strings.Join(info.Languages, ", "))
				}
			}

			p, err := a.newPlugin()
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Plugin: cannot initialize\n  %v\n", err)
				return errCheckFailed
			}
			defer p.Close()

			fmt.Fprintf(out, "Plugin: ready (backend %s, device %s, languages %s)\n",
				p.Backend(), p.Device(), strings.Join(p.Languages(), ", "))
			return nil
		},
	}
}
