package cli

import (
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/saulo-duarte/engmcq-web/internal/container"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// NewLambdaCmd serves the same router behind an API Gateway proxy
// integration. Flows must live in Redis or Postgres there, memory does not
// survive between invocations.
func NewLambdaCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lambda",
		Short: "Run as an AWS Lambda API Gateway handler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}

			c, err := container.New(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			defer c.Close()

			adapter := httpadapter.New(c.Handler)
			logrus.WithField("store", cfg.Store.Driver).Info("Starting lambda handler")
			lambda.Start(adapter.ProxyWithContext)
			return nil
		},
	}
}
