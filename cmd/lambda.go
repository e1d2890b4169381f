package main

import (
	"github.com/Vovarama1992/nexcast/internal/lambdaproxy"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/spf13/cobra"
)

var lambdaCmd = &cobra.Command{
	Use:   "lambda",
	Short: "Serve API Gateway events (REST v1 and HTTP API v2 payloads)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		a, err := newApp(cmd.Context(), false)
		if err != nil {
			return err
		}
		defer a.Close()

		lambda.StartWithOptions(lambdaproxy.New(a.router).Handle, lambda.WithContext(cmd.Context()))
		return nil
	},
}
