package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/Veraticus/tithe/internal/cli"
	"github.com/Veraticus/tithe/internal/config"
	"github.com/Veraticus/tithe/internal/sheets"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func sheetsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sheets",
		Short: "Manage Google Sheets access",
	}

	cmd.AddCommand(sheetsAuthCmd())

	return cmd
}

func sheetsAuthCmd() *cobra.Command {
	var callback string

	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authorize tithe to publish reports to Google Sheets",
		Long: `Run the OAuth2 consent flow in a browser and save the resulting token. The
client ID and secret come from sheets.client_id and sheets.client_secret, or the
GOOGLE_SHEETS_CLIENT_ID and GOOGLE_SHEETS_CLIENT_SECRET environment variables.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			clientID := viper.GetString("sheets.client_id")
			if clientID == "" {
				clientID = os.Getenv("GOOGLE_SHEETS_CLIENT_ID")
			}
			clientSecret := viper.GetString("sheets.client_secret")
			if clientSecret == "" {
				clientSecret = os.Getenv("GOOGLE_SHEETS_CLIENT_SECRET")
			}
			if clientID == "" || clientSecret == "" {
				return errors.New("OAuth2 client ID and secret are required; set sheets.client_id and sheets.client_secret")
			}

			tokenFile := config.SheetsTokenPath()
			token, err := sheets.GetOrCreateToken(cmd.Context(), sheets.OAuth2Config{
				ClientID:     clientID,
				ClientSecret: clientSecret,
				TokenFile:    tokenFile,
				CallbackAddr: callback,
			})
			if err != nil {
				return fmt.Errorf("authentication failed: %w", err)
			}
			if token.RefreshToken == "" {
				return errors.New("google did not return a refresh token; revoke the app's access and try again")
			}

			printLine(cmd, cli.FormatSuccess("Google Sheets access saved to "+tokenFile))
			return nil
		},
	}

	cmd.Flags().StringVar(&callback, "callback", "localhost:8080", "address for the OAuth2 callback server")

	return cmd
}
