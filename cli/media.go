package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pdfseal/pdfseal/media"
)

func newMediaCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "media",
		Short: "Watch for removable drives holding a private key",
		Long: `Watch the removable media mount points (media.roots) and report drives as
they are attached and removed, together with the private key found on them.
Stop with Ctrl-C.`,
		Args: cobra.NoArgs,
		RunE: a.runMedia,
	}
}

func (a *app) runMedia(cmd *cobra.Command, _ []string) error {
	m := media.NewMonitor(media.Options{
		Roots:       a.cfg.Media.Roots,
		KeyFileName: a.cfg.Media.KeyFileName,
		Logger:      a.log,
	})

	errc := make(chan error, 1)
	go func() {
		errc <- m.Run(cmd.Context())
	}()

	out := cmd.OutOrStdout()
	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %v\n", a.cfg.Media.Roots)
	for ev := range m.Events() {
		switch {
		case ev.Type == media.Inserted && ev.KeyFile != "":
			fmt.Fprintf(out, "%s inserted: private key %s\n", ev.Drive, ev.KeyFile)
		case ev.Type == media.Inserted:
			fmt.Fprintf(out, "%s inserted: no private key\n", ev.Drive)
		case ev.KeyFile != "":
			fmt.Fprintf(out, "%s removed: private key no longer available\n", ev.Drive)
		default:
			fmt.Fprintf(out, "%s removed\n", ev.Drive)
		}
	}
	return <-errc
}
