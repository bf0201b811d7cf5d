package commands

import (
	"github.com/spf13/cobra"
)

type uploadOptions struct {
	url   string
	token string
}

func newUploadCommand(global *globalOptions) *cobra.Command {
	opts := &uploadOptions{}

	cmd := &cobra.Command{
		Use:   "upload FILE",
		Short: "Upload a produced file as multipart form data",
		Example: `  codechurn upload commits_2024-01-01_to_2024-12-31.xlsx --url https://collector.example.com/upload
  CODECHURN_UPLOAD_TOKEN=secret codechurn upload report.json --url https://collector.example.com/upload`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			sess, err := global.open(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer sess.close(ctx)

			if cmd.Flags().Changed("url") {
				sess.cfg.Upload.Endpoint = opts.url
			}

			if cmd.Flags().Changed("token") {
				sess.cfg.Upload.Token = opts.token
			}

			return uploadFile(cmd, sess, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.url, "url", "", "collector endpoint (default upload.endpoint from config)")
	cmd.Flags().StringVar(&opts.token, "token", "", "bearer token (default upload.token from config)")

	return cmd
}
